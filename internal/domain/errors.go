package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	// ErrUnavailable marks a backend collaborator that could not be initialised.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrStaleToken marks a device token the push transport permanently rejected.
	ErrStaleToken = errors.New("device token no longer valid")
)
