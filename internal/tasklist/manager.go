// Package tasklist maintains a local snapshot of the user's tasks and keeps
// it consistent with the server across mutations. Toggle and delete update
// the snapshot optimistically before the request is sent; when the request
// fails the snapshot is rebuilt from the server rather than patched, so the
// view can never drift from truth for long.
package tasklist

import (
	"context"
	"sync"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/task"
)

// API is the slice of the task client the manager needs.
type API interface {
	ListTasks(ctx context.Context, filter task.Filter) (*api.Envelope[api.TaskList], error)
	CreateTask(ctx context.Context, create task.Create) (*api.Envelope[task.Task], error)
	UpdateTask(ctx context.Context, id string, update task.Update) (*api.Envelope[task.Task], error)
	DeleteTask(ctx context.Context, id string) (*api.Envelope[api.DeleteResult], error)
	ToggleTask(ctx context.Context, id string) (*api.Envelope[task.Task], error)
}

// Manager owns the task snapshot. All methods are safe for concurrent use.
// The lock is never held across a network call, so readers stay responsive
// while a mutation is in flight.
type Manager struct {
	client API

	mu      sync.Mutex
	filter  task.Filter
	tasks   []task.Task
	total   int
	loading bool
	lastErr error
}

func NewManager(client API) *Manager {
	return &Manager{client: client}
}

// Tasks returns a copy of the current snapshot.
func (m *Manager) Tasks() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]task.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Total is the server-reported count for the current filter.
func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Loading reports whether a refetch is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the most recent mutation failure, cleared by the next
// successful operation.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// SetFilter changes the active filter and refetches under it.
func (m *Manager) SetFilter(ctx context.Context, filter task.Filter) error {
	m.mu.Lock()
	m.filter = filter
	m.mu.Unlock()
	return m.Refetch(ctx)
}

// Filter returns the active filter.
func (m *Manager) Filter() task.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// Refetch replaces the snapshot with the server's current state. It is both
// the normal load path and the sole recovery path after a failed optimistic
// mutation.
func (m *Manager) Refetch(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	filter := m.filter
	m.mu.Unlock()

	env, err := m.client.ListTasks(ctx, filter)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.lastErr = err
		return err
	}
	if !env.Ok() {
		m.lastErr = env.Err
		return env.Err
	}
	m.tasks = *env.Data
	if env.Meta != nil {
		m.total = env.Meta.Total
	} else {
		m.total = len(m.tasks)
	}
	m.lastErr = nil
	return nil
}

// Create submits a new task and, on success, refetches so the snapshot
// carries the server's ordering and assigned fields. Creation is not
// optimistic: a task without a server id cannot be toggled or deleted, so
// it never enters the snapshot early.
func (m *Manager) Create(ctx context.Context, create task.Create) (*task.Task, error) {
	env, err := m.client.CreateTask(ctx, create)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}
	if !env.Ok() {
		m.recordErr(env.Err)
		return nil, env.Err
	}
	created := env.Data
	if err := m.Refetch(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Update submits a partial update and patches the snapshot in place with
// the server's returned task. No optimistic step: the merged result depends
// on server state the client does not hold.
func (m *Manager) Update(ctx context.Context, id string, update task.Update) (*task.Task, error) {
	env, err := m.client.UpdateTask(ctx, id, update)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}
	if !env.Ok() {
		m.recordErr(env.Err)
		return nil, env.Err
	}

	m.mu.Lock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i] = *env.Data
			break
		}
	}
	m.lastErr = nil
	m.mu.Unlock()
	return env.Data, nil
}

// Toggle flips the task's status in the snapshot immediately, then confirms
// with the server. A failure of either class records the error and refetches;
// the optimistic flip is never undone locally.
func (m *Manager) Toggle(ctx context.Context, id string) error {
	m.mu.Lock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i].Status = m.tasks[i].Status.Toggle()
			break
		}
	}
	m.mu.Unlock()

	env, err := m.client.ToggleTask(ctx, id)
	if err == nil && !env.Ok() {
		err = env.Err
	}
	if err != nil {
		m.recordErr(err)
		m.Refetch(ctx)
		return err
	}

	m.mu.Lock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i] = *env.Data
			break
		}
	}
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

// Delete removes the task from the snapshot immediately, then confirms with
// the server. Failure recovery mirrors Toggle.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) < len(m.tasks) {
		m.total--
	}
	m.tasks = kept
	m.mu.Unlock()

	env, err := m.client.DeleteTask(ctx, id)
	if err == nil && !env.Ok() {
		err = env.Err
	}
	if err != nil {
		m.recordErr(err)
		m.Refetch(ctx)
		return err
	}

	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

func (m *Manager) recordErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
