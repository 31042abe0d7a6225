package trend

import (
	"errors"
	"fmt"

	"github.com/okian/harrier/internal/domain/model"
)

// Sentinel errors for trend computations.
var (
	// ErrInsufficientData means one side of the cutoff has no results, so no
	// improvement claim can be made.
	ErrInsufficientData = fmt.Errorf("trend: %w", model.ErrInsufficientData)
	ErrInvalidLimit     = errors.New("limit must be positive")
)
