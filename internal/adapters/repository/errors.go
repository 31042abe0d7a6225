package repository

import (
	"errors"
	"fmt"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already stored")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidRecord = errors.New("invalid record")
)

func duplicateID(id string) error {
	return fmt.Errorf("result %q: %w", id, ErrDuplicate)
}

// duplicatePair matches both ErrDuplicate and dedupe.ErrDuplicateResult.
func duplicatePair(r model.Result, firstID string) error {
	return fmt.Errorf("%w: %w", ErrDuplicate, &dedupe.DuplicateResultError{
		AthleteID:      r.AthleteID,
		RaceID:         r.RaceID,
		FirstResultID:  firstID,
		SecondResultID: r.ID,
	})
}
