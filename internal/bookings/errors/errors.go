package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusConflict means a conditional update found the booking in a
	// different state than the caller expected.
	ErrStatusConflict = errors.New("booking state changed concurrently")

	// ErrChallengeLinked means the booking already points at a challenge.
	ErrChallengeLinked = errors.New("booking already linked to a challenge")
)
