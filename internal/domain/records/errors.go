package records

import (
	"errors"
	"fmt"

	"github.com/okian/harrier/internal/domain/model"
)

// Sentinel errors for record computations.
var (
	// ErrInsufficientData means there is nothing to take a best over.
	ErrInsufficientData = fmt.Errorf("records: %w", model.ErrInsufficientData)
	// ErrInvalidMode is returned when a top-N mode was not chosen.
	ErrInvalidMode = errors.New("invalid top-n mode")
	// ErrInvalidLimit is returned for a non-positive N.
	ErrInvalidLimit = errors.New("limit must be positive")
	// ErrInvalidSubject is returned for an unknown subject kind or empty id.
	ErrInvalidSubject = errors.New("invalid record subject")
)
