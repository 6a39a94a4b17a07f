package storage

import (
	"errors"
	"time"

	"github.com/taskflowhq/taskflow-cli/internal/task"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when creating a user with an email that is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// TaskRecord is a task together with its owner.
type TaskRecord struct {
	UserID string
	task.Task
}

type Conversation struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}
