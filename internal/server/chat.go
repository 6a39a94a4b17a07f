package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/storage"
	"github.com/taskflowhq/taskflow-cli/internal/task"
)

// The assistant is intentionally a small rule engine. It covers the commands
// the hosted assistant handles most often, enough to develop the chat UI
// against, without any model dependency.

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed",
			[]api.ErrorDetail{{Field: "message", Message: "Message is required"}})
		return
	}

	uid := userID(r.Context())

	conv, ok := s.resolveConversation(w, uid, req.ConversationID)
	if !ok {
		return
	}

	if err := s.store.AppendMessage(storage.Message{
		ID:             s.newID(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        req.Message,
		CreatedAt:      s.now(),
	}); err != nil {
		s.internalError(w, err)
		return
	}

	response, toolCalls, err := s.respond(uid, req.Message)
	if err != nil {
		s.internalError(w, err)
		return
	}

	if err := s.store.AppendMessage(storage.Message{
		ID:             s.newID(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        response,
		CreatedAt:      s.now(),
	}); err != nil {
		s.internalError(w, err)
		return
	}

	if toolCalls == nil {
		toolCalls = []api.ToolCall{}
	}
	writeData(w, http.StatusOK, api.ChatResponse{
		ConversationID: conv.ID,
		Response:       response,
		ToolCalls:      toolCalls,
	}, nil)
}

func (s *Server) resolveConversation(w http.ResponseWriter, uid, id string) (storage.Conversation, bool) {
	if id == "" {
		conv := storage.Conversation{ID: s.newID(), UserID: uid, CreatedAt: s.now()}
		if err := s.store.CreateConversation(conv); err != nil {
			s.internalError(w, err)
			return storage.Conversation{}, false
		}
		return conv, true
	}

	conv, err := s.store.GetConversation(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found", nil)
		} else {
			s.internalError(w, err)
		}
		return storage.Conversation{}, false
	}
	if conv.UserID != uid {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Conversation belongs to another user", nil)
		return storage.Conversation{}, false
	}
	return conv, true
}

var createPrefixes = []string{
	"add a task to ",
	"add a task: ",
	"add a task ",
	"add task ",
	"create a task to ",
	"create task ",
	"remind me to ",
}

func (s *Server) respond(uid, message string) (string, []api.ToolCall, error) {
	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)

	for _, prefix := range createPrefixes {
		if strings.HasPrefix(lower, prefix) {
			title := strings.TrimSpace(msg[len(prefix):])
			if title == "" {
				return "What should the task be called?", nil, nil
			}
			return s.assistantCreate(uid, title)
		}
	}

	if strings.Contains(lower, "task") && (strings.Contains(lower, "list") || strings.Contains(lower, "show") || strings.Contains(lower, "what")) {
		return s.assistantList(uid)
	}

	for _, prefix := range []string{"complete ", "finish ", "mark "} {
		if strings.HasPrefix(lower, prefix) {
			needle := strings.TrimSuffix(strings.TrimSpace(msg[len(prefix):]), " as done")
			return s.assistantComplete(uid, needle)
		}
	}

	for _, prefix := range []string{"delete ", "remove "} {
		if strings.HasPrefix(lower, prefix) {
			return s.assistantDelete(uid, strings.TrimSpace(msg[len(prefix):]))
		}
	}

	return "I can add, list, complete, and delete tasks. Try \"add a task to water the plants\".", nil, nil
}

func (s *Server) assistantCreate(uid, title string) (string, []api.ToolCall, error) {
	now := s.now().UTC()
	rec := storage.TaskRecord{
		UserID: uid,
		Task: task.Task{
			ID:         s.newID(),
			Title:      title,
			Status:     task.StatusPending,
			Priority:   task.PriorityMedium,
			Recurrence: task.RecurrenceNone,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	if err := s.store.CreateTask(rec); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Added %q to your tasks.", title),
		[]api.ToolCall{{Tool: "create_task", Args: map[string]any{"title": title}}}, nil
}

func (s *Server) assistantList(uid string) (string, []api.ToolCall, error) {
	tasks, err := s.store.ListTasks(uid, task.Filter{Status: string(task.StatusPending)})
	if err != nil {
		return "", nil, err
	}
	call := []api.ToolCall{{Tool: "list_tasks", Args: map[string]any{"status": "pending"}}}
	if len(tasks) == 0 {
		return "You have no pending tasks.", call, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d pending task(s):\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Title, t.Priority)
	}
	return strings.TrimRight(b.String(), "\n"), call, nil
}

func (s *Server) assistantComplete(uid, needle string) (string, []api.ToolCall, error) {
	t, found, err := s.findByTitle(uid, needle)
	if err != nil {
		return "", nil, err
	}
	if !found {
		return fmt.Sprintf("I couldn't find a task matching %q.", needle), nil, nil
	}
	if t.Status == task.StatusCompleted {
		return fmt.Sprintf("%q is already completed.", t.Title), nil, nil
	}

	t.Task.Status = task.StatusCompleted
	t.Task.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTask(t); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Marked %q as completed.", t.Title),
		[]api.ToolCall{{Tool: "toggle_task", Args: map[string]any{"id": t.ID}}}, nil
}

func (s *Server) assistantDelete(uid, needle string) (string, []api.ToolCall, error) {
	t, found, err := s.findByTitle(uid, needle)
	if err != nil {
		return "", nil, err
	}
	if !found {
		return fmt.Sprintf("I couldn't find a task matching %q.", needle), nil, nil
	}

	if err := s.store.DeleteTask(t.ID); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Deleted %q.", t.Title),
		[]api.ToolCall{{Tool: "delete_task", Args: map[string]any{"id": t.ID}}}, nil
}

// findByTitle matches the user's tasks by case-insensitive substring,
// preferring an exact title match when one exists.
func (s *Server) findByTitle(uid, needle string) (storage.TaskRecord, bool, error) {
	if needle == "" {
		return storage.TaskRecord{}, false, nil
	}
	tasks, err := s.store.ListTasks(uid, task.Filter{})
	if err != nil {
		return storage.TaskRecord{}, false, err
	}

	lower := strings.ToLower(needle)
	var partial *task.Task
	for i, t := range tasks {
		title := strings.ToLower(t.Title)
		if title == lower {
			return storage.TaskRecord{UserID: uid, Task: t}, true, nil
		}
		if partial == nil && strings.Contains(title, lower) {
			partial = &tasks[i]
		}
	}
	if partial != nil {
		return storage.TaskRecord{UserID: uid, Task: *partial}, true, nil
	}
	return storage.TaskRecord{}, false, nil
}
