package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmailConflict is returned when a user with the email already exists
	ErrEmailConflict = errors.New("email already registered")

	// ErrAuthCodeAlreadyConsumed is returned by MarkAuthRequestConsumed when
	// the code was already consumed by a concurrent request (0 rows updated).
	ErrAuthCodeAlreadyConsumed = errors.New("authorization code already consumed")

	// ErrTokenAlreadyRevoked is returned by rotation when the record was
	// revoked by a concurrent exchange.
	ErrTokenAlreadyRevoked = errors.New("refresh token already revoked")
)
