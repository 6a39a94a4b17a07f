package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/session"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

// newTestServer serves canned envelope bodies keyed by "METHOD /path" and
// records every request it sees.
func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"data":null,"error":{"code":"NOT_FOUND","message":"not found","details":[]},"meta":null}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

// swapClient points newAPIClient at the test server for the duration of the
// test.
func (ts *testServer) swapClient(t *testing.T) {
	t.Helper()
	old := newAPIClient
	t.Cleanup(func() { newAPIClient = old })

	store := session.NewStore(session.NoopBackend{}, session.DefaultKeys())
	newAPIClient = func() (*api.Client, *session.Store, error) {
		return api.NewClient(ts.server.URL, api.StaticToken("test-token")), store, nil
	}
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestAddCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/tasks": `{"data":{"id":"abc-123","title":"Buy milk","status":"pending","priority":"high"},"error":null,"meta":null}`,
	})
	ts.swapClient(t)

	if err := runCommand(t, "add", "Buy milk", "--priority", "high", "--tags", "errands"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(ts.requests))
	}
	req := ts.requests[0]
	if req.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want bearer token", req.Auth)
	}
	if !strings.Contains(req.Body, `"title":"Buy milk"`) {
		t.Errorf("body = %s, want title field", req.Body)
	}
	if !strings.Contains(req.Body, `"tags":["errands"]`) {
		t.Errorf("body = %s, want tags field", req.Body)
	}
}

func TestAddCommandRejectsInvalidDraftLocally(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.swapClient(t)

	err := runCommand(t, "add", "   ")
	if err == nil || err.Error() != "Title is required" {
		t.Fatalf("err = %v, want local validation message", err)
	}
	if len(ts.requests) != 0 {
		t.Errorf("requests = %d, want 0 for locally invalid draft", len(ts.requests))
	}
}

func TestDoneCommandResolvesPrefix(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/tasks":              `{"data":[{"id":"abc-123","title":"one","status":"pending","priority":"low"},{"id":"def-456","title":"two","status":"pending","priority":"low"}],"error":null,"meta":{"total":2}}`,
		"PATCH /api/tasks/abc-123/toggle": `{"data":{"id":"abc-123","title":"one","status":"completed","priority":"low"},"error":null,"meta":null}`,
	})
	ts.swapClient(t)

	if err := runCommand(t, "done", "abc"); err != nil {
		t.Fatalf("done: %v", err)
	}

	last := ts.requests[len(ts.requests)-1]
	if last.Path != "/api/tasks/abc-123/toggle" {
		t.Errorf("path = %q, want resolved full id", last.Path)
	}
}

func TestResolveTaskIDAmbiguous(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/tasks": `{"data":[{"id":"abc-1"},{"id":"abc-2"}],"error":null,"meta":{"total":2}}`,
	})
	ts.swapClient(t)

	client, _, err := newAPIClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resolveTaskID(context.Background(), client, "abc"); err == nil {
		t.Error("expected error for ambiguous prefix")
	}
	if _, err := resolveTaskID(context.Background(), client, "zzz"); err == nil {
		t.Error("expected error for no match")
	}
	id, err := resolveTaskID(context.Background(), client, "abc-1")
	if err != nil || id != "abc-1" {
		t.Errorf("exact id = (%q, %v), want abc-1", id, err)
	}
}

func TestListCommandAppError(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/tasks": `{"data":null,"error":{"code":"UNAUTHORIZED","message":"Sign in required","details":[]},"meta":null}`,
	})
	ts.swapClient(t)

	err := runCommand(t, "list")
	if err == nil || !strings.Contains(err.Error(), "Sign in required") {
		t.Fatalf("err = %v, want envelope error surfaced", err)
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" home, work ,,errands ")
	want := []string{"home", "work", "errands"}
	if len(got) != len(want) {
		t.Fatalf("splitTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitTags("") != nil {
		t.Error("splitTags(\"\") should be nil")
	}
}

func TestShortID(t *testing.T) {
	cases := []struct{ in, want string }{
		{"4f2a91cc-0b1d-4a6e-9f00-1c2d3e4f5a6b", "4f2a91cc"},
		{"abcdef0123456789", "abcdef01"},
		{"short", "short"},
	}
	for _, tc := range cases {
		if got := shortID(tc.in); got != tc.want {
			t.Errorf("shortID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize with noColor=true = %q, want plain text", got)
	}

	noColor = false
	if got := colorize(colorRed, "x"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false = %q, want ANSI codes", got)
	}
}
