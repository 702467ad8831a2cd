package errors

import "errors"

var (
	ErrNotFound = errors.New("challenge not found")

	ErrInvalidID = errors.New("invalid challenge ID format")

	// ErrStatusConflict means the challenge was not in the state the
	// conditional update required.
	ErrStatusConflict = errors.New("challenge state changed concurrently")
)
