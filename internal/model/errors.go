package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrNoSuchUser = errors.New("no such user")

	// Match errors
	ErrNoSuchMatch = errors.New("no such match")
	ErrMatchFull   = errors.New("match already has two players")
	ErrOwnMatch    = errors.New("cannot join own match")

	// Journal errors
	ErrPairingNotFound = errors.New("pairing not found")

	// ErrUnavailable is wrapped by errors from components that have shut down
	ErrUnavailable = errors.New("service unavailable")
)
