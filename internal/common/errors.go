// Package common defines shared constants and sentinel errors used across
// client and server layers of Portalsend. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors. Raised before any cryptographic work starts,
	// a caller hitting one of these has a bug.
	ErrorValidation = errors.New("validation error")

	// Key-material errors.
	ErrorKeysNotSetUp        = errors.New("keys are not set up")
	ErrorIncompleteKeyRecord = errors.New("incomplete key record")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
