package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeForbidden  = "forbidden"
	ErrCodeInternal   = "internal"
)

var (
	// ErrUsernameTaken means another user record already owns the username.
	ErrUsernameTaken = errors.New("username taken")
	// ErrUnauthorized means the sender lacks author or admin rights. Handled silently.
	ErrUnauthorized = errors.New("unauthorized")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
