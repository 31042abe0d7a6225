package dedupe

import (
	"errors"
	"fmt"
)

// ErrDuplicateResult is the kind of every DuplicateResultError.
var ErrDuplicateResult = errors.New("duplicate result for athlete and race")

// DuplicateResultError names the (athlete, race) pair that appeared twice
// in one batch so the source data can be fixed.
type DuplicateResultError struct {
	AthleteID      string
	RaceID         string
	FirstResultID  string
	SecondResultID string
}

func (e *DuplicateResultError) Error() string {
	return fmt.Sprintf("athlete %q race %q: results %q and %q: %s",
		e.AthleteID, e.RaceID, e.FirstResultID, e.SecondResultID, ErrDuplicateResult.Error())
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *DuplicateResultError) Unwrap() error {
	return ErrDuplicateResult
}
