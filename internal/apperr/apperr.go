// Package apperr defines the error categories the HTTP layer maps to
// response codes. Services wrap these sentinels; handlers branch with
// errors.Is and never leak upstream error text to clients.
package apperr

import "errors"

var (
	// ErrNotFound covers unknown ids and unknown session keys.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate covers unique-constraint conflicts: existing email,
	// classroom name, session key, or a second attendance record.
	ErrDuplicate = errors.New("already exists")
	// ErrForbidden covers role and ownership failures.
	ErrForbidden = errors.New("not authorized")
	// ErrValidation covers missing or malformed request fields.
	ErrValidation = errors.New("invalid request")
	// ErrUnavailable covers upstream failures: database, image storage, email.
	ErrUnavailable = errors.New("service unavailable")
)
