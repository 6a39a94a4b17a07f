package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/storage"
	"github.com/taskflowhq/taskflow-cli/internal/task"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := task.Filter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Tag:      q.Get("tag"),
	}

	tasks, err := s.store.ListTasks(userID(r.Context()), filter)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, tasks, &api.Meta{Total: len(tasks)})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var create task.Create
	if !decodeBody(w, r, &create) {
		return
	}
	if create.Priority == "" {
		create.Priority = task.PriorityMedium
	}
	if create.Recurrence == "" {
		create.Recurrence = task.RecurrenceNone
	}

	draft := task.Draft{
		Title:       create.Title,
		Description: create.Description,
		Priority:    create.Priority,
		Tags:        create.Tags,
		DueDate:     create.DueDate,
		Recurrence:  create.Recurrence,
	}
	if errs := task.Validate(draft); len(errs) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", toDetails(errs))
		return
	}

	now := s.now().UTC()
	create = draft.Create()
	rec := storage.TaskRecord{
		UserID: userID(r.Context()),
		Task: task.Task{
			ID:          s.newID(),
			Title:       create.Title,
			Description: create.Description,
			Status:      task.StatusPending,
			Priority:    create.Priority,
			Tags:        create.Tags,
			DueDate:     create.DueDate,
			Recurrence:  create.Recurrence,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	if err := s.store.CreateTask(rec); err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusCreated, rec.Task, nil)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadOwned(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, rec.Task, nil)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var update task.Update
	if !decodeBody(w, r, &update) {
		return
	}

	rec, ok := s.loadOwned(w, r)
	if !ok {
		return
	}

	if update.Title != nil {
		rec.Title = *update.Title
	}
	if update.Description != nil {
		rec.Description = *update.Description
	}
	if update.Priority != nil {
		rec.Priority = *update.Priority
	}
	if update.Tags != nil {
		rec.Tags = *update.Tags
	}
	if update.DueDate != nil {
		rec.DueDate = update.DueDate
	}
	if update.Recurrence != nil {
		rec.Recurrence = *update.Recurrence
	}

	// The merged task must satisfy the same rules as a new one.
	draft := task.Draft{
		Title:       rec.Title,
		Description: rec.Description,
		Priority:    rec.Priority,
		Tags:        rec.Tags,
		DueDate:     rec.DueDate,
		Recurrence:  rec.Recurrence,
	}
	if errs := task.Validate(draft); len(errs) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", toDetails(errs))
		return
	}
	rec.Title = draft.Create().Title
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateTask(rec); err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec.Task, nil)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadOwned(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTask(rec.ID); err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, api.DeleteResult{ID: rec.ID, Deleted: true}, nil)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadOwned(w, r)
	if !ok {
		return
	}
	rec.Status = rec.Status.Toggle()
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateTask(rec); err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec.Task, nil)
}

// loadOwned fetches the task in the URL and checks it belongs to the caller.
// It writes the error response itself when the lookup fails.
func (s *Server) loadOwned(w http.ResponseWriter, r *http.Request) (storage.TaskRecord, bool) {
	rec, err := s.store.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Task not found", nil)
		} else {
			s.internalError(w, err)
		}
		return storage.TaskRecord{}, false
	}
	if rec.UserID != userID(r.Context()) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Task belongs to another user", nil)
		return storage.TaskRecord{}, false
	}
	return rec, true
}

func toDetails(errs []task.FieldError) []api.ErrorDetail {
	details := make([]api.ErrorDetail, len(errs))
	for i, e := range errs {
		details[i] = api.ErrorDetail{Field: e.Field, Message: e.Message}
	}
	return details
}
