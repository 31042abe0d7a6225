// Package types contains the serializable outputs of the engine.
//
// Optional values are pointers so that "no qualifying data" renders as
// null rather than a zero time; a literal zero is never a valid race time.
package types

import (
	"time"

	"github.com/okian/harrier/internal/domain/model"
)

// Entry represents a live leaderboard row: an athlete's best
// XC-equivalent time.
type Entry struct {
	Rank              int          `json:"rank"`
	AthleteID         string       `json:"athlete_id"`
	AthleteName       string       `json:"athlete_name,omitempty"`
	SchoolID          string       `json:"school_id,omitempty"`
	Gender            model.Gender `json:"gender"`
	NormalizedSeconds float64      `json:"normalized_seconds"`
	RawSeconds        float64      `json:"raw_seconds"`
	ResultID          string       `json:"result_id"`
	CourseID          string       `json:"course_id"`
}

// NewEntry builds the live leaderboard row for a normalized result.
func NewEntry(e model.Entry, normalized float64) Entry {
	return Entry{
		AthleteID:         e.Athlete.ID,
		AthleteName:       e.Athlete.FullName(),
		SchoolID:          e.SchoolID(),
		Gender:            e.Gender(),
		NormalizedSeconds: normalized,
		RawSeconds:        e.Result.TimeSeconds,
		ResultID:          e.Result.ID,
		CourseID:          e.Course.ID,
	}
}

// Role classifies a runner by team-place on a complete team.
type Role string

const (
	RoleCounting    Role = "counting"
	RoleDisplacer   Role = "displacer"
	RoleNonCounting Role = "non-counting"
	// RoleIncomplete marks a member of a school with too few finishers.
	RoleIncomplete Role = "incomplete-team"
)

// RunnerPlacement is one runner's outcome in a scored race.
type RunnerPlacement struct {
	ResultID          string  `json:"result_id"`
	AthleteID         string  `json:"athlete_id"`
	AthleteName       string  `json:"athlete_name,omitempty"`
	SchoolID          string  `json:"school_id"`
	RawSeconds        float64 `json:"raw_seconds"`
	NormalizedSeconds float64 `json:"normalized_seconds"`
	OverallPlace      int     `json:"overall_place"`
	// TeamPlace is zero for members of incomplete teams.
	TeamPlace int `json:"team_place,omitempty"`
	// ScoringPlace is nil for non-qualifying runners.
	ScoringPlace *int `json:"scoring_place"`
	Role         Role `json:"role"`
}

// TeamStanding is a ranked complete team.
type TeamStanding struct {
	Rank       int               `json:"rank"`
	SchoolID   string            `json:"school_id"`
	SchoolName string            `json:"school_name,omitempty"`
	Score      int               `json:"score"`
	Runners    []RunnerPlacement `json:"runners"`
	// TieBreak names the rule that separated this team from an equal score.
	TieBreak string `json:"tie_break,omitempty"`
}

// IncompleteTeam is a school with fewer finishers than a scoring team needs.
type IncompleteTeam struct {
	SchoolID   string            `json:"school_id"`
	SchoolName string            `json:"school_name,omitempty"`
	Runners    []RunnerPlacement `json:"runners"`
}

// UnscoredResult is a result left out of a cross-course computation.
type UnscoredResult struct {
	ResultID   string  `json:"result_id"`
	AthleteID  string  `json:"athlete_id"`
	SchoolID   string  `json:"school_id,omitempty"`
	CourseID   string  `json:"course_id,omitempty"`
	RawSeconds float64 `json:"raw_seconds"`
	Reason     string  `json:"reason"`
}

// RaceScoring is the full team-scoring output for one race.
type RaceScoring struct {
	RaceID     string            `json:"race_id"`
	Gender     model.Gender      `json:"gender,omitempty"`
	Category   string            `json:"category,omitempty"`
	Overall    []RunnerPlacement `json:"overall"`
	Standings  []TeamStanding    `json:"standings"`
	Incomplete []IncompleteTeam  `json:"incomplete"`
	Unscored   []UnscoredResult  `json:"unscored"`
}

// Mark is a single result with the context that travels with a record.
type Mark struct {
	ResultID    string    `json:"result_id"`
	AthleteID   string    `json:"athlete_id"`
	AthleteName string    `json:"athlete_name,omitempty"`
	SchoolID    string    `json:"school_id,omitempty"`
	MeetID      string    `json:"meet_id"`
	MeetName    string    `json:"meet_name,omitempty"`
	Date        time.Time `json:"date"`
	CourseID    string    `json:"course_id"`
	CourseName  string    `json:"course_name,omitempty"`
	RawSeconds  float64   `json:"raw_seconds"`
	// NormalizedSeconds is nil when the course has no rating.
	NormalizedSeconds *float64 `json:"normalized_seconds"`
	Grade             int      `json:"grade"`
}

// AthleteRecords holds an athlete's personal bests.
type AthleteRecords struct {
	AthleteID string `json:"athlete_id"`
	// CoursePRs holds the fastest raw time per course, ordered by course id.
	CoursePRs []Mark `json:"course_prs"`
	// AllCourseBest is the fastest XC-equivalent time over rated courses.
	AllCourseBest *Mark            `json:"all_course_best"`
	Skipped       []UnscoredResult `json:"skipped,omitempty"`
}

// GradeRecord is the fastest mark in a grade bucket.
type GradeRecord struct {
	Grade int  `json:"grade"`
	Mark  Mark `json:"mark"`
}

// CourseRecords holds a school's records on one course.
type CourseRecords struct {
	CourseID   string        `json:"course_id"`
	CourseName string        `json:"course_name,omitempty"`
	Overall    Mark          `json:"overall"`
	ByGrade    []GradeRecord `json:"by_grade"`
}

// SchoolRecords holds a school's records for one gender.
type SchoolRecords struct {
	SchoolID string          `json:"school_id"`
	Gender   model.Gender    `json:"gender"`
	Courses  []CourseRecords `json:"courses"`
}

// LeaderboardEntry is one row of a top-N list.
type LeaderboardEntry struct {
	Rank int  `json:"rank"`
	Mark Mark `json:"mark"`
}

// TeamPerformance is a school's five-runner total in one race.
type TeamPerformance struct {
	Rank         int       `json:"rank"`
	SchoolID     string    `json:"school_id"`
	RaceID       string    `json:"race_id"`
	MeetID       string    `json:"meet_id"`
	MeetName     string    `json:"meet_name,omitempty"`
	Date         time.Time `json:"date"`
	CourseID     string    `json:"course_id"`
	TotalSeconds float64   `json:"total_seconds"`
	Runners      []Mark    `json:"runners"`
}

// SubjectKind selects what a RecordSet describes.
type SubjectKind string

const (
	SubjectAthlete SubjectKind = "athlete"
	SubjectSchool  SubjectKind = "school"
)

// Subject identifies the athlete or school records are computed for.
type Subject struct {
	Kind   SubjectKind  `json:"kind"`
	ID     string       `json:"id"`
	Gender model.Gender `json:"gender,omitempty"`
}

// RecordSet bundles every record computed for a subject.
type RecordSet struct {
	Subject   Subject            `json:"subject"`
	Athlete   *AthleteRecords    `json:"athlete,omitempty"`
	School    *SchoolRecords     `json:"school,omitempty"`
	Top       []LeaderboardEntry `json:"top"`
	TeamBests []TeamPerformance  `json:"team_bests,omitempty"`
	Skipped   []UnscoredResult   `json:"skipped,omitempty"`
}

// DatedTime is one point of an athlete's normalized history.
type DatedTime struct {
	ResultID          string    `json:"result_id"`
	Date              time.Time `json:"date"`
	NormalizedSeconds float64   `json:"normalized_seconds"`
}

// ImprovementReport compares a recent-window best against a prior best.
type ImprovementReport struct {
	AthleteID      string       `json:"athlete_id,omitempty"`
	AthleteName    string       `json:"athlete_name,omitempty"`
	SchoolID       string       `json:"school_id,omitempty"`
	Gender         model.Gender `json:"gender,omitempty"`
	Cutoff         time.Time    `json:"cutoff"`
	OldPR          DatedTime    `json:"old_pr"`
	NewPR          DatedTime    `json:"new_pr"`
	Improved       bool         `json:"improved"`
	ImprovementPct float64      `json:"improvement_pct"`
}

// Movers lists the biggest improvers of each gender.
type Movers struct {
	Cutoff time.Time           `json:"cutoff"`
	Boys   []ImprovementReport `json:"boys"`
	Girls  []ImprovementReport `json:"girls"`
}
