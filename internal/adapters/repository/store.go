// Package repository persists the catalog and results and serves the
// joined entries the engine consumes.
package repository

import (
	"context"

	"github.com/okian/harrier/internal/domain/model"
)

// Catalog provides read/write access to reference data. Puts are upserts
// and reject references to records that do not exist yet.
type Catalog interface {
	PutCourse(ctx context.Context, c model.Course) error
	PutMeet(ctx context.Context, m model.Meet) error
	PutRace(ctx context.Context, r model.Race) error
	PutSchool(ctx context.Context, s model.School) error
	PutAthlete(ctx context.Context, a model.Athlete) error

	Course(ctx context.Context, id string) (model.Course, error)
	Meet(ctx context.Context, id string) (model.Meet, error)
	Race(ctx context.Context, id string) (model.Race, error)
	School(ctx context.Context, id string) (model.School, error)
	Athlete(ctx context.Context, id string) (model.Athlete, error)
}

// Results stores finishes and returns them joined with the catalog.
type Results interface {
	// AddResult stores r. It returns ErrDuplicate when the result id or the
	// (athlete, race) pair is already stored, and ErrNotFound when the
	// athlete or race is unknown.
	AddResult(ctx context.Context, r model.Result) error
	// Entries returns every stored result matching f, joined, ordered by
	// meet date then result id.
	Entries(ctx context.Context, f Filter) ([]model.Entry, error)
}

// Store is the full persistence contract.
type Store interface {
	Catalog
	Results
	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// Filter narrows Entries. Zero fields match everything. SchoolID and
// Gender match the athlete's current school and own gender.
type Filter struct {
	RaceID    string
	AthleteID string
	SchoolID  string
	CourseID  string
	Gender    model.Gender
}

// Match reports whether e passes the filter.
func (f Filter) Match(e model.Entry) bool {
	switch {
	case f.RaceID != "" && e.Result.RaceID != f.RaceID:
		return false
	case f.AthleteID != "" && e.Result.AthleteID != f.AthleteID:
		return false
	case f.SchoolID != "" && e.SchoolID() != f.SchoolID:
		return false
	case f.CourseID != "" && e.Course.ID != f.CourseID:
		return false
	case f.Gender != "" && e.Gender() != f.Gender:
		return false
	}
	return true
}

// Counts is the number of stored records per kind.
type Counts struct {
	Courses  int `json:"courses"`
	Meets    int `json:"meets"`
	Races    int `json:"races"`
	Schools  int `json:"schools"`
	Athletes int `json:"athletes"`
	Results  int `json:"results"`
}

// Each calls fn for every kind, in a fixed order.
func (c Counts) Each(fn func(kind string, n int)) {
	fn("courses", c.Courses)
	fn("meets", c.Meets)
	fn("races", c.Races)
	fn("schools", c.Schools)
	fn("athletes", c.Athletes)
	fn("results", c.Results)
}
