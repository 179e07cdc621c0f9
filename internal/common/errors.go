// Package common defines shared constants and sentinel errors used across
// the server and the authctl client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrStorageFailure wraps any fault reported by a storage adapter.
	ErrStorageFailure = errors.New("storage failure")

	// Session errors.
	ErrAlreadyExists         = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrMissingInput          = errors.New("refresh token is required")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired refresh token")
	ErrTokenNotFound         = errors.New("refresh token not found")
	ErrTokenExpired          = errors.New("refresh token expired")
)
