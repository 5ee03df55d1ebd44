package domain

import "errors"

var (
	// ErrNotFound is returned when deleting a weight record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps any failure of the underlying storage medium.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidWeight is returned for non-positive or non-finite weight values.
	ErrInvalidWeight = errors.New("weight must be a positive number")
	// ErrInvalidUnit is returned for a display unit other than "kg" or "lb".
	ErrInvalidUnit = errors.New(`unit must be "kg" or "lb"`)
)
