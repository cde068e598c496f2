package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthFailed = errors.New("authentication failed")
	ErrPullFailed = errors.New("pull failed")
	ErrPushFailed = errors.New("push failed")

	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnavailable   = errors.New("server unavailable")
	ErrNotConfigured = errors.New("remote provider not configured")
)

// Error is a failed remote call.
type Error struct {
	// Op is ErrAuthFailed, ErrPullFailed or ErrPushFailed.
	Op error

	// StatusCode is 0 when no response was received.
	StatusCode int

	// Message is the response body excerpt for non-2xx replies.
	Message string

	Err error

	transport bool
}

func (e *Error) Error() string {
	msg := e.Op.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	switch {
	case e.Message != "":
		msg += ": " + e.Message
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Op}
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		errs = append(errs, ErrUnauthorized)
	case e.transport, e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		errs = append(errs, ErrUnavailable)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
