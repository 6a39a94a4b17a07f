package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/taskflowhq/taskflow-cli/internal/api"
)

type fakeChat struct {
	fn func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error)
}

func (f *fakeChat) SendChat(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
	return f.fn(ctx, req)
}

func chatEnvelope(resp api.ChatResponse) (*api.Envelope[api.ChatResponse], error) {
	return &api.Envelope[api.ChatResponse]{Data: &resp}, nil
}

func TestSendAppendsBothSides(t *testing.T) {
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		if req.UserID != "u1" {
			t.Errorf("user_id = %q, want u1", req.UserID)
		}
		if req.ConversationID != "" {
			t.Errorf("conversation_id = %q, want empty on first send", req.ConversationID)
		}
		return chatEnvelope(api.ChatResponse{
			ConversationID: "conv-1",
			Response:       "Added \"Buy milk\" to your tasks.",
			ToolCalls:      []api.ToolCall{{Tool: "create_task", Args: map[string]any{"title": "Buy milk"}}},
		})
	}}
	m := NewManager(f, "u1")

	reply, err := m.Send(context.Background(), "add a task to buy milk")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "add a task to buy milk" {
		t.Errorf("first message = %+v, want user message", msgs[0])
	}
	if msgs[1].Role != RoleAssistant {
		t.Errorf("second message role = %q, want assistant", msgs[1].Role)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Tool != "create_task" {
		t.Errorf("tool calls = %+v, want one create_task", reply.ToolCalls)
	}
	if m.ConversationID() != "conv-1" {
		t.Errorf("conversation id = %q, want conv-1", m.ConversationID())
	}
}

func TestSendFailureRollsBackUserMessage(t *testing.T) {
	var visibleDuringSend int
	var m *Manager
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		visibleDuringSend = len(m.Messages())
		return nil, errors.New("connection refused")
	}}
	m = NewManager(f, "u1")

	if _, err := m.Send(context.Background(), "hello"); err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if visibleDuringSend != 1 {
		t.Errorf("messages during send = %d, want optimistic 1", visibleDuringSend)
	}
	if got := len(m.Messages()); got != 0 {
		t.Errorf("messages after rollback = %d, want 0", got)
	}
	if m.Err() == nil {
		t.Error("Err() = nil after failed send, want the send error")
	}
}

func TestSendApplicationErrorRollsBack(t *testing.T) {
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		return &api.Envelope[api.ChatResponse]{Err: &api.ErrorInfo{Code: "UNAUTHORIZED", Message: "Sign in required"}}, nil
	}}
	m := NewManager(f, "u1")

	_, err := m.Send(context.Background(), "hello")
	var info *api.ErrorInfo
	if !errors.As(err, &info) || info.Code != "UNAUTHORIZED" {
		t.Fatalf("err = %v, want UNAUTHORIZED ErrorInfo", err)
	}
	if got := len(m.Messages()); got != 0 {
		t.Errorf("messages after rollback = %d, want 0", got)
	}
	if m.ConversationID() != "" {
		t.Errorf("conversation id = %q, want empty after failure", m.ConversationID())
	}
	var held *api.ErrorInfo
	if !errors.As(m.Err(), &held) || held.Code != "UNAUTHORIZED" {
		t.Errorf("Err() = %v, want the UNAUTHORIZED ErrorInfo", m.Err())
	}
}

func TestSuccessClearsHeldError(t *testing.T) {
	fail := true
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return chatEnvelope(api.ChatResponse{ConversationID: "conv-1", Response: "ok"})
	}}
	m := NewManager(f, "u1")

	if _, err := m.Send(context.Background(), "hello"); err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if m.Err() == nil {
		t.Fatal("Err() = nil after failure")
	}

	fail = false
	if _, err := m.Send(context.Background(), "hello again"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v after success, want nil", m.Err())
	}
}

func TestConversationIDSticks(t *testing.T) {
	var gotIDs []string
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		gotIDs = append(gotIDs, req.ConversationID)
		return chatEnvelope(api.ChatResponse{ConversationID: "conv-1", Response: "ok"})
	}}
	m := NewManager(f, "u1")

	for _, text := range []string{"first", "second", "third"} {
		if _, err := m.Send(context.Background(), text); err != nil {
			t.Fatalf("Send(%q): %v", text, err)
		}
	}

	want := []string{"", "conv-1", "conv-1"}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("send %d conversation_id = %q, want %q", i, gotIDs[i], want[i])
		}
	}
}

func TestClearResetsTranscriptAndConversation(t *testing.T) {
	fail := false
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return chatEnvelope(api.ChatResponse{ConversationID: "conv-1", Response: "ok"})
	}}
	m := NewManager(f, "u1")
	if _, err := m.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	fail = true
	m.Send(context.Background(), "this one fails")

	m.Clear()

	if len(m.Messages()) != 0 {
		t.Error("messages survive Clear")
	}
	if m.ConversationID() != "" {
		t.Error("conversation id survives Clear")
	}
	if m.Err() != nil {
		t.Error("held error survives Clear")
	}
}

func TestEmptyMessageIsNoop(t *testing.T) {
	called := false
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		called = true
		return chatEnvelope(api.ChatResponse{})
	}}
	m := NewManager(f, "u1")

	reply, err := m.Send(context.Background(), "   ")
	if err != nil || reply != nil {
		t.Fatalf("Send = (%v, %v), want (nil, nil)", reply, err)
	}
	if called {
		t.Error("blank message reached the server")
	}
	if len(m.Messages()) != 0 {
		t.Error("blank message entered the transcript")
	}
}

func TestSendsAreSerialized(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan struct{}, 2)
	f := &fakeChat{fn: func(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error) {
		inFlight <- struct{}{}
		if req.Message == "slow" {
			<-release
		}
		return chatEnvelope(api.ChatResponse{ConversationID: "conv-1", Response: "reply to " + req.Message})
	}}
	m := NewManager(f, "u1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Send(context.Background(), "slow")
	}()
	<-inFlight

	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Send(context.Background(), "fast")
	}()

	// The second send must not reach the server while the first is blocked.
	select {
	case <-inFlight:
		t.Fatal("second send started before first settled")
	default:
	}

	close(release)
	wg.Wait()

	msgs := m.Messages()
	if len(msgs) != 4 {
		t.Fatalf("len(messages) = %d, want 4", len(msgs))
	}
	if msgs[0].Content != "slow" || msgs[2].Content != "fast" {
		t.Errorf("transcript order = [%q %q ...], want invocation order", msgs[0].Content, msgs[2].Content)
	}
}

func TestLocalAndRemoteIDsDistinct(t *testing.T) {
	local := NewLocalID()
	remote := RemoteID(local.String())
	if local == remote {
		t.Error("local and remote ids with equal values compare equal")
	}
	if !local.Local() || remote.Local() {
		t.Error("Local() tags inverted")
	}
}
