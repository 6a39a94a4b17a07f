package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/storage"
	"github.com/taskflowhq/taskflow-cli/internal/task"
)

// Tests run the full stack: api.Client against the real handler over HTTP,
// backed by an in-memory database.

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(New(store, []byte("test-secret"), zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func signUp(t *testing.T, url, email string) *api.Client {
	t.Helper()
	c := api.NewClient(url, nil)
	env, err := c.SignUp(context.Background(), api.SignUpRequest{
		Email:    email,
		Password: "correct-horse",
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !env.Ok() {
		t.Fatalf("SignUp envelope error: %v", env.Err)
	}
	return api.NewClient(url, api.StaticToken(env.Data.Token))
}

func mustCreate(t *testing.T, c *api.Client, create task.Create) task.Task {
	t.Helper()
	env, err := c.CreateTask(context.Background(), create)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if !env.Ok() {
		t.Fatalf("CreateTask envelope error: %v", env.Err)
	}
	return *env.Data
}

func TestSignUpAndSignIn(t *testing.T) {
	srv := startServer(t)
	c := api.NewClient(srv.URL, nil)

	env, err := c.SignUp(context.Background(), api.SignUpRequest{
		Email: "a@example.com", Password: "correct-horse", Name: "Ada",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !env.Ok() {
		t.Fatalf("SignUp envelope error: %v", env.Err)
	}
	if env.Data.Token == "" || env.Data.User.ID == "" {
		t.Errorf("auth data incomplete: %+v", env.Data)
	}
	if env.Data.User.Email != "a@example.com" {
		t.Errorf("email = %q, want a@example.com", env.Data.User.Email)
	}

	in, err := c.SignIn(context.Background(), api.Credentials{Email: "a@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !in.Ok() {
		t.Fatalf("SignIn envelope error: %v", in.Err)
	}

	bad, err := c.SignIn(context.Background(), api.Credentials{Email: "a@example.com", Password: "wrong"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if bad.Ok() || bad.Err.Code != "INVALID_CREDENTIALS" {
		t.Errorf("wrong password envelope = %+v, want INVALID_CREDENTIALS", bad.Err)
	}
}

func TestMe(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "me@example.com")

	env, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if !env.Ok() {
		t.Fatalf("Me envelope error: %v", env.Err)
	}
	if env.Data.Email != "me@example.com" || env.Data.Name != "Test User" {
		t.Errorf("user = %+v, want the signed-up account", env.Data)
	}

	anon := api.NewClient(srv.URL, nil)
	env2, err := anon.Me(context.Background())
	if err != nil {
		t.Fatalf("Me without token: %v", err)
	}
	if env2.Ok() || env2.Err.Code != "UNAUTHORIZED" {
		t.Errorf("anonymous Me = %v, want UNAUTHORIZED", env2.Err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	srv := startServer(t)
	signUp(t, srv.URL, "dup@example.com")

	c := api.NewClient(srv.URL, nil)
	env, err := c.SignUp(context.Background(), api.SignUpRequest{
		Email: "dup@example.com", Password: "correct-horse", Name: "Second",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if env.Ok() || env.Err.Code != "EMAIL_TAKEN" {
		t.Errorf("envelope = %+v, want EMAIL_TAKEN", env.Err)
	}
}

func TestSignUpValidation(t *testing.T) {
	srv := startServer(t)
	c := api.NewClient(srv.URL, nil)

	env, err := c.SignUp(context.Background(), api.SignUpRequest{Email: "not-an-email", Password: "short"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if env.Ok() || env.Err.Code != "VALIDATION_ERROR" {
		t.Fatalf("envelope = %+v, want VALIDATION_ERROR", env.Err)
	}
	if len(env.Err.Details) != 3 {
		t.Errorf("details = %+v, want email, password, and name entries", env.Err.Details)
	}
}

func TestTasksRequireAuth(t *testing.T) {
	srv := startServer(t)
	c := api.NewClient(srv.URL, nil)

	env, err := c.ListTasks(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if env.Ok() || env.Err.Code != "UNAUTHORIZED" {
		t.Errorf("envelope = %+v, want UNAUTHORIZED", env.Err)
	}

	garbage := api.NewClient(srv.URL, api.StaticToken("not-a-jwt"))
	env, err = garbage.ListTasks(context.Background(), task.Filter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if env.Ok() || env.Err.Code != "UNAUTHORIZED" {
		t.Errorf("envelope = %+v, want UNAUTHORIZED for bad token", env.Err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")
	ctx := context.Background()

	created := mustCreate(t, c, task.Create{
		Title:    "Buy milk",
		Priority: task.PriorityHigh,
		Tags:     []string{"errands"},
	})
	if created.ID == "" || created.Status != task.StatusPending {
		t.Fatalf("created = %+v, want pending task with id", created)
	}

	list, err := c.ListTasks(ctx, task.Filter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(*list.Data) != 1 || list.Meta.Total != 1 {
		t.Fatalf("list = %d items, total %d, want 1/1", len(*list.Data), list.Meta.Total)
	}

	toggled, err := c.ToggleTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if toggled.Data.Status != task.StatusCompleted {
		t.Errorf("status = %q, want completed", toggled.Data.Status)
	}

	title := "Buy oat milk"
	updated, err := c.UpdateTask(ctx, created.ID, task.Update{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Data.Title != title {
		t.Errorf("title = %q, want %q", updated.Data.Title, title)
	}
	if updated.Data.Status != task.StatusCompleted {
		t.Errorf("status = %q, want toggle preserved through update", updated.Data.Status)
	}

	deleted, err := c.DeleteTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !deleted.Data.Deleted || deleted.Data.ID != created.ID {
		t.Errorf("delete result = %+v", deleted.Data)
	}

	gone, err := c.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if gone.Ok() || gone.Err.Code != "NOT_FOUND" {
		t.Errorf("envelope = %+v, want NOT_FOUND", gone.Err)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")

	env, err := c.CreateTask(context.Background(), task.Create{
		Title:      "   ",
		Priority:   task.PriorityLow,
		Recurrence: task.RecurrenceWeekly,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if env.Ok() || env.Err.Code != "VALIDATION_ERROR" {
		t.Fatalf("envelope = %+v, want VALIDATION_ERROR", env.Err)
	}

	want := map[string]string{
		"title":      "Title is required",
		"recurrence": "Recurrence requires a due date",
	}
	if len(env.Err.Details) != len(want) {
		t.Fatalf("details = %+v, want %d entries", env.Err.Details, len(want))
	}
	for _, d := range env.Err.Details {
		if want[d.Field] != d.Message {
			t.Errorf("detail %s = %q, want %q", d.Field, d.Message, want[d.Field])
		}
	}
}

func TestListTasksFiltered(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")
	ctx := context.Background()

	mustCreate(t, c, task.Create{Title: "one", Priority: task.PriorityHigh, Tags: []string{"work"}})
	mustCreate(t, c, task.Create{Title: "two", Priority: task.PriorityLow, Tags: []string{"home"}})
	done := mustCreate(t, c, task.Create{Title: "three", Priority: task.PriorityHigh})
	if _, err := c.ToggleTask(ctx, done.ID); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}

	cases := []struct {
		name   string
		filter task.Filter
		want   int
	}{
		{"all", task.Filter{}, 3},
		{"pending", task.Filter{Status: "pending"}, 2},
		{"completed", task.Filter{Status: "completed"}, 1},
		{"high", task.Filter{Priority: "high"}, 2},
		{"tag", task.Filter{Tag: "home"}, 1},
		{"pending high", task.Filter{Status: "pending", Priority: "high"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := c.ListTasks(ctx, tc.filter)
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if got := len(*env.Data); got != tc.want {
				t.Errorf("len = %d, want %d", got, tc.want)
			}
			if env.Meta.Total != tc.want {
				t.Errorf("total = %d, want %d", env.Meta.Total, tc.want)
			}
		})
	}
}

func TestTaskOwnership(t *testing.T) {
	srv := startServer(t)
	owner := signUp(t, srv.URL, "owner@example.com")
	other := signUp(t, srv.URL, "other@example.com")
	ctx := context.Background()

	created := mustCreate(t, owner, task.Create{Title: "private"})

	env, err := other.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if env.Ok() || env.Err.Code != "FORBIDDEN" {
		t.Errorf("envelope = %+v, want FORBIDDEN", env.Err)
	}

	del, err := other.DeleteTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if del.Ok() || del.Err.Code != "FORBIDDEN" {
		t.Errorf("envelope = %+v, want FORBIDDEN", del.Err)
	}

	list, err := other.ListTasks(ctx, task.Filter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(*list.Data) != 0 {
		t.Errorf("other user sees %d tasks, want 0", len(*list.Data))
	}
}

func TestChatCreatesTask(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")
	ctx := context.Background()

	env, err := c.SendChat(ctx, api.ChatRequest{Message: "add a task to water the plants"})
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if !env.Ok() {
		t.Fatalf("SendChat envelope error: %v", env.Err)
	}
	if env.Data.ConversationID == "" {
		t.Error("conversation id empty")
	}
	if len(env.Data.ToolCalls) != 1 || env.Data.ToolCalls[0].Tool != "create_task" {
		t.Errorf("tool calls = %+v, want one create_task", env.Data.ToolCalls)
	}
	if !strings.Contains(env.Data.Response, "water the plants") {
		t.Errorf("response = %q, want task title echoed", env.Data.Response)
	}

	list, err := c.ListTasks(ctx, task.Filter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(*list.Data) != 1 || (*list.Data)[0].Title != "water the plants" {
		t.Errorf("tasks = %+v, want the chat-created task", *list.Data)
	}
}

func TestChatConversationContinues(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")
	ctx := context.Background()

	first, err := c.SendChat(ctx, api.ChatRequest{Message: "add a task to buy milk"})
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if !first.Ok() {
		t.Fatalf("envelope error: %v", first.Err)
	}

	second, err := c.SendChat(ctx, api.ChatRequest{
		Message:        "complete buy milk",
		ConversationID: first.Data.ConversationID,
	})
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if !second.Ok() {
		t.Fatalf("envelope error: %v", second.Err)
	}
	if second.Data.ConversationID != first.Data.ConversationID {
		t.Errorf("conversation id changed: %q -> %q", first.Data.ConversationID, second.Data.ConversationID)
	}
	if len(second.Data.ToolCalls) != 1 || second.Data.ToolCalls[0].Tool != "toggle_task" {
		t.Errorf("tool calls = %+v, want toggle_task", second.Data.ToolCalls)
	}

	list, err := c.ListTasks(ctx, task.Filter{Status: "completed"})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(*list.Data) != 1 {
		t.Errorf("completed tasks = %d, want 1", len(*list.Data))
	}
}

func TestChatUnknownConversation(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")

	env, err := c.SendChat(context.Background(), api.ChatRequest{
		Message:        "hello",
		ConversationID: "missing",
	})
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if env.Ok() || env.Err.Code != "NOT_FOUND" {
		t.Errorf("envelope = %+v, want NOT_FOUND", env.Err)
	}
}

func TestChatFallback(t *testing.T) {
	srv := startServer(t)
	c := signUp(t, srv.URL, "a@example.com")

	env, err := c.SendChat(context.Background(), api.ChatRequest{Message: "sing me a song"})
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if !env.Ok() {
		t.Fatalf("envelope error: %v", env.Err)
	}
	if len(env.Data.ToolCalls) != 0 {
		t.Errorf("tool calls = %+v, want none", env.Data.ToolCalls)
	}
	if !strings.Contains(env.Data.Response, "add") {
		t.Errorf("response = %q, want help text", env.Data.Response)
	}
}
