// Package common defines shared constants, sentinel errors and small
// abstractions used across client and server layers of threeline. Callers
// should use errors.Is to match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Input validation failures. Nothing is mutated when one is returned.
	ErrValidation = errors.New("validation error")

	// Client session state.
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")

	// Local persistence failures surfaced by the engine.
	ErrStorage = errors.New("storage error")

	// Server-side auth errors.
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)
