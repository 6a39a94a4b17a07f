// Package conversation holds the chat transcript with the assistant. The
// user's message is shown immediately and rolled back if the send fails;
// the server's conversation id is captured from the first reply and pinned
// for the rest of the session.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow-cli/internal/api"
)

// Role distinguishes the two sides of the transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageID identifies a message. Local ids are minted for messages the
// client created itself and are never sent to the server; remote ids come
// from server payloads. The two namespaces cannot collide.
type MessageID struct {
	value string
	local bool
}

// NewLocalID mints an id for a client-created message.
func NewLocalID() MessageID {
	return MessageID{value: uuid.New().String(), local: true}
}

// RemoteID wraps a server-assigned id.
func RemoteID(v string) MessageID {
	return MessageID{value: v}
}

func (id MessageID) String() string { return id.value }

// Local reports whether the id was minted client-side.
func (id MessageID) Local() bool { return id.local }

// Message is one transcript entry. Assistant messages may carry the tool
// calls the server executed while producing the reply.
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	ToolCalls []api.ToolCall
	SentAt    time.Time
}

// ChatAPI is the slice of the client the manager needs.
type ChatAPI interface {
	SendChat(ctx context.Context, req api.ChatRequest) (*api.Envelope[api.ChatResponse], error)
}

// Manager owns one conversation. Sends are serialized: a second Send blocks
// until the first has settled, so the transcript order always matches the
// invocation order.
type Manager struct {
	client ChatAPI
	userID string

	sendMu sync.Mutex

	mu             sync.Mutex
	conversationID string
	messages       []Message
	sending        bool
	lastErr        error

	now func() time.Time
}

func NewManager(client ChatAPI, userID string) *Manager {
	return &Manager{
		client: client,
		userID: userID,
		now:    time.Now,
	}
}

// Messages returns a copy of the transcript.
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// ConversationID returns the pinned server conversation id, empty before
// the first successful exchange.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// Sending reports whether a send is in flight.
func (m *Manager) Sending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sending
}

// Err returns the error from the most recent failed send, nil after a
// success or a Clear.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Send appends the user's message, delivers it, and appends the assistant's
// reply. On any failure the user's message is removed again and the error
// returned; the transcript is left exactly as before the call.
func (m *Manager) Send(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	userMsg := Message{
		ID:      NewLocalID(),
		Role:    RoleUser,
		Content: text,
		SentAt:  m.now(),
	}

	m.mu.Lock()
	m.messages = append(m.messages, userMsg)
	m.sending = true
	convID := m.conversationID
	m.mu.Unlock()

	env, err := m.client.SendChat(ctx, api.ChatRequest{
		UserID:         m.userID,
		Message:        text,
		ConversationID: convID,
	})
	if err == nil && !env.Ok() {
		err = env.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sending = false

	if err != nil {
		m.removeLocked(userMsg.ID)
		m.lastErr = err
		return nil, err
	}
	m.lastErr = nil

	reply := Message{
		ID:        NewLocalID(),
		Role:      RoleAssistant,
		Content:   env.Data.Response,
		ToolCalls: env.Data.ToolCalls,
		SentAt:    m.now(),
	}
	m.messages = append(m.messages, reply)
	m.conversationID = env.Data.ConversationID
	return &reply, nil
}

// Clear drops the transcript and the pinned conversation id; the next send
// starts a fresh conversation on the server.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.conversationID = ""
	m.lastErr = nil
}

func (m *Manager) removeLocked(id MessageID) {
	for i, msg := range m.messages {
		if msg.ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return
		}
	}
}
