package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taskflowhq/taskflow-cli/internal/session"
	"github.com/taskflowhq/taskflow-cli/internal/task"
)

const defaultTimeout = 30 * time.Second

// TokenSource yields the bearer token for outgoing requests, when one exists.
// The session store satisfies this.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a TokenSource holding a fixed token. An empty value means
// no token.
type StaticToken string

func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

// Client is a typed client for the task API. All endpoints return the
// uniform envelope; success is decided by the envelope's error field, never
// by HTTP status.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL. tokens may be nil for
// an unauthenticated client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// call issues a request and decodes the envelope for the expected data type.
func call[T any](c *Client, ctx context.Context, method, path string, payload any) (*Envelope[T], error) {
	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[T](resp)
}

// ChatRequest is the payload for the assistant endpoint.
type ChatRequest struct {
	UserID         string `json:"user_id"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ToolCall describes one action the assistant took on the caller's behalf.
type ToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	ConversationID string     `json:"conversation_id"`
	Response       string     `json:"response"`
	ToolCalls      []ToolCall `json:"tool_calls"`
}

// Credentials are the sign-in payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the registration payload.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthData is returned by both auth endpoints.
type AuthData struct {
	User  session.User `json:"user"`
	Token string       `json:"token"`
}

// DeleteResult confirms a deletion.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// TaskList is the data payload of the list endpoint.
type TaskList []task.Task

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*Envelope[AuthData], error) {
	return call[AuthData](c, ctx, http.MethodPost, "/api/auth/signup", req)
}

func (c *Client) SignIn(ctx context.Context, creds Credentials) (*Envelope[AuthData], error) {
	return call[AuthData](c, ctx, http.MethodPost, "/api/auth/signin", creds)
}

// Me returns the account behind the current credential.
func (c *Client) Me(ctx context.Context) (*Envelope[session.User], error) {
	return call[session.User](c, ctx, http.MethodGet, "/api/auth/me", nil)
}

func (c *Client) ListTasks(ctx context.Context, filter task.Filter) (*Envelope[TaskList], error) {
	path := "/api/tasks"
	if q := filter.Values().Encode(); q != "" {
		path += "?" + q
	}
	return call[TaskList](c, ctx, http.MethodGet, path, nil)
}

func (c *Client) GetTask(ctx context.Context, id string) (*Envelope[task.Task], error) {
	return call[task.Task](c, ctx, http.MethodGet, "/api/tasks/"+id, nil)
}

func (c *Client) CreateTask(ctx context.Context, create task.Create) (*Envelope[task.Task], error) {
	return call[task.Task](c, ctx, http.MethodPost, "/api/tasks", create)
}

func (c *Client) UpdateTask(ctx context.Context, id string, update task.Update) (*Envelope[task.Task], error) {
	return call[task.Task](c, ctx, http.MethodPatch, "/api/tasks/"+id, update)
}

func (c *Client) DeleteTask(ctx context.Context, id string) (*Envelope[DeleteResult], error) {
	return call[DeleteResult](c, ctx, http.MethodDelete, "/api/tasks/"+id, nil)
}

func (c *Client) ToggleTask(ctx context.Context, id string) (*Envelope[task.Task], error) {
	return call[task.Task](c, ctx, http.MethodPatch, "/api/tasks/"+id+"/toggle", nil)
}

func (c *Client) SendChat(ctx context.Context, req ChatRequest) (*Envelope[ChatResponse], error) {
	return call[ChatResponse](c, ctx, http.MethodPost, "/api/chat", req)
}
