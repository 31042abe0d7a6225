package scoring

import (
	"errors"
	"fmt"
)

// ErrMixedRaces is returned when a batch spans more than one race.
var ErrMixedRaces = errors.New("entries belong to different races")

// MixedRaceError names the first entry outside the race being scored.
type MixedRaceError struct {
	Want     string
	Got      string
	ResultID string
}

func (e *MixedRaceError) Error() string {
	return fmt.Sprintf("result %q is in race %q, scoring race %q: %s", e.ResultID, e.Got, e.Want, ErrMixedRaces.Error())
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *MixedRaceError) Unwrap() error {
	return ErrMixedRaces
}
