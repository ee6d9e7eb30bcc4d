// Package common defines shared constants and sentinel errors used across
// the food-management core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Validation errors (bad input shape or range, missing references).
	ErrorValidation = errors.New("validation error")

	// Domain errors.
	ErrorUnitMismatch      = errors.New("unit mismatch")
	ErrorInsufficientStock = errors.New("insufficient stock")

	// Optimistic-concurrency retry signal. Retried internally a bounded
	// number of times before being surfaced.
	ErrorConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorForbidden  = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")
)
