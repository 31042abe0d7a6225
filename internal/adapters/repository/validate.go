package repository

import (
	"fmt"
	"strings"

	"github.com/okian/harrier/internal/domain/model"
)

func invalid(kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, kind, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validateCourse(c model.Course) error {
	switch {
	case blank(c.ID):
		return invalid("course", "missing id")
	case c.DistanceMeters < 0:
		return invalid("course", "negative distance")
	case c.NormalizationRating != nil && !(*c.NormalizationRating > 0):
		return invalid("course", "normalization rating must be positive")
	case c.DifficultyMultiplier != nil && !(*c.DifficultyMultiplier > 0):
		return invalid("course", "difficulty multiplier must be positive")
	}
	return nil
}

func validateMeet(m model.Meet) error {
	switch {
	case blank(m.ID):
		return invalid("meet", "missing id")
	case blank(m.CourseID):
		return invalid("meet", "missing course_id")
	case m.Date.IsZero():
		return invalid("meet", "missing date")
	}
	return nil
}

func validateRace(r model.Race) error {
	switch {
	case blank(r.ID):
		return invalid("race", "missing id")
	case blank(r.MeetID):
		return invalid("race", "missing meet_id")
	case !r.Gender.Valid():
		return invalid("race", "gender %q", r.Gender)
	}
	return nil
}

func validateSchool(s model.School) error {
	if blank(s.ID) {
		return invalid("school", "missing id")
	}
	return nil
}

func validateAthlete(a model.Athlete) error {
	switch {
	case blank(a.ID):
		return invalid("athlete", "missing id")
	case blank(a.SchoolID):
		return invalid("athlete", "missing school_id")
	case !a.Gender.Valid():
		return invalid("athlete", "gender %q", a.Gender)
	}
	return nil
}

func validateResult(r model.Result) error {
	if blank(r.ID) {
		return invalid("result", "missing id")
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}
