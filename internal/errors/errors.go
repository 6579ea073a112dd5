// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies a domain error so the transport layer can derive a stable
// status signal from it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidArgument
	KindNotFound
	KindConflict
)

// Error is the domain error type returned by services. Fields carries
// optional machine-readable details (e.g. the offending relationship count
// on a deletion conflict).
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string { return e.Message }

// WithField attaches a detail field and returns the error for chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = value
	return e
}

// Body renders the error as a JSON-ready response body: the message under
// "error" plus any detail fields.
func (e *Error) Body() map[string]any {
	body := map[string]any{"error": e.Message}
	for k, v := range e.Fields {
		body[k] = v
	}
	return body
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a validation error for out-of-bounds input.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// InvalidArgument creates an error for semantically bad arguments
// (self-friendship, missing required field).
func InvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

// NotFound creates an error for an absent record.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict creates an error for state conflicts (duplicate friendship,
// delete with active relationships).
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Map converts repo/infra errors into domain errors. Keeps the service
// layer clean by centralizing error classification.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindInternal, Message: "request timed out"}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindInternal, Message: "request was canceled"}

	default:
		// fallback → bubble up error message for debugging
		return &Error{Kind: KindInternal, Message: err.Error()}
	}
}
