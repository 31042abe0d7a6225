// Package model contains the cross-country domain records passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Gender is the canonical binary competitor tag. The engine only ever
// compares against these two values.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Valid reports whether g is one of the canonical tags.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Label returns the reporting label used for leaderboards and movers.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "boys"
	case GenderFemale:
		return "girls"
	default:
		return "unknown"
	}
}

// ParseGender maps the spellings seen in imported data onto the canonical
// tag. It belongs at the ingestion boundary; the engine never calls it.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "boy", "boys", "men":
		return GenderMale, nil
	case "f", "female", "girl", "girls", "women":
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
	}
}

// Meet type tags.
const (
	MeetRegular      = "regular"
	MeetChampionship = "championship"
)

// Course is a venue with a fixed distance and calibration factors.
type Course struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	DistanceMeters float64 `json:"distance_meters" yaml:"distance_meters"`
	// DifficultyMultiplier is relative hardness vs a flat track mile.
	// Descriptive only.
	DifficultyMultiplier *float64 `json:"difficulty_multiplier,omitempty" yaml:"difficulty_multiplier"`
	// NormalizationRating converts a raw time on this course into the
	// reference-course equivalent. Nil means the course cannot be compared.
	NormalizationRating *float64 `json:"normalization_rating,omitempty" yaml:"normalization_rating"`
}

// Rated reports whether the course can take part in cross-course comparison.
func (c Course) Rated() bool {
	return c.NormalizationRating != nil
}

// Meet is a single competition day on one course.
type Meet struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Date     time.Time `json:"date" yaml:"date"`
	Type     string    `json:"type" yaml:"type"`
	CourseID string    `json:"course_id" yaml:"course_id"`
}

// Race is a gender and category scoped subdivision of a meet, e.g. Boys Varsity.
type Race struct {
	ID       string `json:"id" yaml:"id"`
	MeetID   string `json:"meet_id" yaml:"meet_id"`
	Gender   Gender `json:"gender" yaml:"gender"`
	Category string `json:"category" yaml:"category"`
}

// School is a team.
type School struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Athlete is a competitor. SchoolID is the current school only.
type Athlete struct {
	ID             string `json:"id" yaml:"id"`
	FirstName      string `json:"first_name" yaml:"first_name"`
	LastName       string `json:"last_name" yaml:"last_name"`
	Gender         Gender `json:"gender" yaml:"gender"`
	GraduationYear int    `json:"graduation_year" yaml:"graduation_year"`
	SchoolID       string `json:"school_id" yaml:"school_id"`
}

// FullName returns "First Last".
func (a Athlete) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Result is one athlete's finish in one race.
type Result struct {
	ID          string  `json:"id"`
	AthleteID   string  `json:"athlete_id"`
	RaceID      string  `json:"race_id"`
	TimeSeconds float64 `json:"time_seconds"`
	Place       *int    `json:"place,omitempty"`
	Season      int     `json:"season"`
}

// Validate checks the field-level invariants of a result.
func (r Result) Validate() error {
	switch {
	case strings.TrimSpace(r.AthleteID) == "":
		return fmt.Errorf("%w: missing athlete_id", ErrInvalidResult)
	case strings.TrimSpace(r.RaceID) == "":
		return fmt.Errorf("%w: missing race_id", ErrInvalidResult)
	case !(r.TimeSeconds > 0):
		return fmt.Errorf("%w: time_seconds must be positive", ErrInvalidResult)
	}
	return nil
}

// PairKey identifies the (athlete, race) pair a result belongs to.
func PairKey(athleteID, raceID string) string {
	return athleteID + "|" + raceID
}

// Key returns the (athlete, race) pair key of the result.
func (r Result) Key() string {
	return PairKey(r.AthleteID, r.RaceID)
}
