package core

import (
	"errors"
	"net/http"
)

// Error kinds. Use errors.Is to test an error against a kind.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Client-facing messages. They are intentionally generic.
const (
	MsgMissingCredentials = "Username and password are required"
	MsgInvalidCredentials = "Invalid username or password"
	MsgMissingSession     = "Missing session cookie"
	MsgInvalidSession     = "Invalid or expired session"
)

// Error is an expected failure whose message can be returned to the client.
type Error struct {
	kind error
	msg  string
}

func NewValidationError(msg string) *Error {
	return &Error{kind: ErrValidation, msg: msg}
}

func NewAuthenticationError(msg string) *Error {
	return &Error{kind: ErrUnauthenticated, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// StatusCode maps err to an HTTP status. Anything that is not a core Error
// is a system failure.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
