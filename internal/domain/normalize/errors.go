package normalize

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRating is the kind of every MissingRatingError.
	ErrMissingRating = errors.New("course has no normalization rating")
	// ErrBadClock is returned for an unreadable finish time.
	ErrBadClock = errors.New("invalid finish time")
)

// MissingRatingError reports which course could not be normalized. Callers
// treat it as "cannot compare", never as a rating of 1.0.
type MissingRatingError struct {
	CourseID string
}

func (e *MissingRatingError) Error() string {
	return fmt.Sprintf("course %q: %s", e.CourseID, ErrMissingRating.Error())
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *MissingRatingError) Unwrap() error {
	return ErrMissingRating
}
