package task

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// Draft is the form-local shape of a task before it is submitted. It exists
// only on the client; the server never sees a draft directly.
type Draft struct {
	Title       string
	Description string
	Priority    Priority
	Tags        []string
	DueDate     *time.Time
	Recurrence  Recurrence
}

// Create converts a valid draft into a create request. The title is
// submitted trimmed, matching what validation checked.
func (d Draft) Create() Create {
	return Create{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Priority:    d.Priority,
		Tags:        d.Tags,
		DueDate:     d.DueDate,
		Recurrence:  d.Recurrence,
	}
}

// FieldError is a single field-scoped validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks a draft against the client-side field rules. It is pure
// and deterministic; an empty result means the draft is valid. At most one
// error is reported per field, evaluated in the order title, description,
// priority, recurrence. The server re-validates authoritatively with the
// same rules; this check exists so the form can fail fast.
func Validate(d Draft) []FieldError {
	var errs []FieldError

	// The required check looks at the trimmed title, but the length cap
	// applies to the raw input, whitespace included.
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Title is required"})
	} else if utf8.RuneCountInString(d.Title) > maxTitleLen {
		errs = append(errs, FieldError{Field: "title", Message: "Title must be 200 characters or less"})
	}

	if d.Description != "" && utf8.RuneCountInString(d.Description) > maxDescriptionLen {
		errs = append(errs, FieldError{Field: "description", Message: "Description must be 1000 characters or less"})
	}

	if !d.Priority.Valid() {
		errs = append(errs, FieldError{Field: "priority", Message: "Priority must be low, medium, or high"})
	}

	// The enum check takes precedence over the due-date dependency when the
	// recurrence value itself is invalid.
	if !d.Recurrence.Valid() {
		errs = append(errs, FieldError{Field: "recurrence", Message: "Recurrence must be none, daily, weekly, or monthly"})
	} else if d.Recurrence != RecurrenceNone && d.DueDate == nil {
		errs = append(errs, FieldError{Field: "recurrence", Message: "Recurrence requires a due date"})
	}

	return errs
}

// ErrorFor returns the message for the named field, or "" when the field
// has no error.
func ErrorFor(errs []FieldError, field string) string {
	for _, e := range errs {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}
