// Package httperr defines the error taxonomy shared by handlers and
// middleware, plus the centralized translator that maps any error escaping a
// handler into the uniform JSON envelope:
//
//	{"errors":[{"type":"...","message":"...","path":"","location":""}]}
//
// Handlers never write error responses themselves; they return an *Error (or
// any error, which is treated as internal) and let the echo error handler
// render it.
package httperr

import (
	"errors"
	"net/http"
)

// FieldError is a single entry of the error envelope. For validation
// failures Path names the offending field and Location where it was found
// (currently always "body"); for every other error class both are empty.
type FieldError struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Error is an HTTP-mapped application error. Status selects the response
// code and Kind the "type" field of the envelope.
type Error struct {
	Status int
	Kind   string
	Fields []FieldError
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if len(e.Fields) > 0 {
		return e.Fields[0].Message
	}
	return e.Kind
}

func (e *Error) Unwrap() error { return e.err }

func newError(status int, kind, message string) *Error {
	return &Error{
		Status: status,
		Kind:   kind,
		Fields: []FieldError{{Type: kind, Message: message}},
		err:    errors.New(message),
	}
}

// Validation builds a 400 carrying field-level entries produced at the
// request validation boundary.
func Validation(fields []FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: "ValidationError", Fields: fields}
}

// Authentication is a 401: missing, invalid or expired credentials.
func Authentication(message string) *Error {
	return newError(http.StatusUnauthorized, "AuthenticationError", message)
}

// Authorization is a 403: the authenticated role may not perform the action.
func Authorization(message string) *Error {
	return newError(http.StatusForbidden, "AuthorizationError", message)
}

// Conflict is a 400 raised when a unique constraint is violated, e.g. a
// duplicate email on registration.
func Conflict(message string) *Error {
	return newError(http.StatusBadRequest, "ConflictError", message)
}

// BadRequest is a generic 400 that is not tied to a single field.
func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, "BadRequestError", message)
}

// NotFound is a 404 for a missing referenced entity.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, "NotFoundError", message)
}

// Internal is a 500: configuration or persistence failure. The wrapped
// cause is logged by the error handler but never sent to the client.
func Internal(cause error) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Kind:   "InternalError",
		Fields: []FieldError{{Type: "InternalError", Message: "internal server error"}},
		err:    cause,
	}
}
