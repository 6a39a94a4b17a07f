package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ErrorDetail is one field-scoped entry inside an application error.
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorInfo is the application-level error carried by an envelope. It
// implements error so callers can record and surface it directly.
type ErrorInfo struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

func (e *ErrorInfo) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Meta carries call-specific side-channel data. Only the list endpoint
// populates it today.
type Meta struct {
	Total int `json:"total"`
}

// Envelope is the uniform {data, error, meta} wrapper every endpoint
// returns. Exactly one of Data and Err holds meaningful content.
type Envelope[T any] struct {
	Data *T         `json:"data"`
	Err  *ErrorInfo `json:"error"`
	Meta *Meta      `json:"meta"`
}

// Ok reports whether the call succeeded at the application level.
func (e *Envelope[T]) Ok() bool {
	return e.Err == nil
}

// decodeEnvelope parses a response body as an envelope. The wire is an
// untrusted boundary: a body that is not JSON, or that carries neither
// data nor error, is a transport-class failure, not an application error.
// HTTP status codes are ignored; the envelope alone decides success or
// failure.
func decodeEnvelope[T any](resp *http.Response) (*Envelope[T], error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed response envelope: %w", err)
	}
	if env.Data == nil && env.Err == nil {
		return nil, fmt.Errorf("malformed response envelope: neither data nor error present")
	}
	return &env, nil
}
