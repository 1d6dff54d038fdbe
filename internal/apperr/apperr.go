// Package apperr defines the error kinds shared by the reward server and its clients.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code carried on the wire.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeInvalidState    Code = "INVALID_STATE"
	CodePrecondition    Code = "PRECONDITION_FAILED"
	CodeConflict        Code = "CONFLICT"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInternal        Code = "INTERNAL"
)

var (
	// ErrNotFound means the session is unknown
	ErrNotFound = errors.New("session not found")
	// ErrForbidden means the caller is not a participant of the session
	ErrForbidden = errors.New("caller is not a participant of this session")
	// ErrInvalidState means a live computation was requested on an ended session
	ErrInvalidState = errors.New("session has ended")
	// ErrPrecondition means continue was requested before the threshold
	ErrPrecondition = errors.New("session has not reached the decision threshold")
	// ErrConflict means a concurrent decision changed the session first
	ErrConflict = errors.New("session was changed by a concurrent decision")
	// ErrBadRequest means the request could not be understood
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthenticated means no valid caller identity was presented
	ErrUnauthenticated = errors.New("unauthenticated")
)

var codes = []struct {
	err    error
	code   Code
	status int
}{
	{ErrNotFound, CodeNotFound, http.StatusNotFound},
	{ErrForbidden, CodeForbidden, http.StatusForbidden},
	{ErrInvalidState, CodeInvalidState, http.StatusUnprocessableEntity},
	{ErrPrecondition, CodePrecondition, http.StatusPreconditionFailed},
	{ErrConflict, CodeConflict, http.StatusConflict},
	{ErrBadRequest, CodeBadRequest, http.StatusBadRequest},
	{ErrUnauthenticated, CodeUnauthenticated, http.StatusUnauthorized},
}

// CodeOf returns the code for err, CodeInternal if it is not a known kind.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	for _, c := range codes {
		if c.code == code {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

// FromCode returns the sentinel error for a wire code, or nil if the code is unknown.
func FromCode(code Code) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// IsFatal reports whether a polling client should stop on err
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthenticated)
}
