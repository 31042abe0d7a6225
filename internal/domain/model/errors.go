package model

import "errors"

// Sentinel error kinds for the domain model.
var (
	ErrInvalidResult = errors.New("invalid result")
	ErrInvalidGender = errors.New("invalid gender")
	// ErrInsufficientData marks a computation over an empty or
	// under-populated input. It is distinct from a zero value.
	ErrInsufficientData = errors.New("insufficient data")
)
