// Package common defines sentinel errors and small helpers shared by the
// bounty tracker packages. Callers should use errors.Is to match the errors.
package common

import "errors"

var (
	// Authentication errors.
	ErrAuthFailure = errors.New("invalid credentials")
	ErrNotLoggedIn = errors.New("not logged in")

	// Redemption errors, reported in precondition order.
	ErrExpired         = errors.New("time has expired")
	ErrInvalidKey      = errors.New("invalid key")
	ErrAlreadyRedeemed = errors.New("key already redeemed")

	// Settings errors.
	ErrInvalidDisplayName = errors.New("display name must not be empty")

	// Storage errors. A persistence failure degrades the session to
	// in-memory operation; it is never fatal.
	ErrPersistence = errors.New("persistence failure")
	ErrCorrupted   = errors.New("corrupted data")
)
