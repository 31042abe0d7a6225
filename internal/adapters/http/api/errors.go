package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// badRequest wraps err so it maps to 400.
func badRequest(err error) error {
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}
