package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	ErrInvalidID = errors.New("invalid slot ID format")

	// ErrAlreadyReserved is returned when the reservation compare-and-swap matched nothing.
	ErrAlreadyReserved = errors.New("slot already reserved")
)
