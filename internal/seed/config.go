// Package seed generates a synthetic cross-country season, posts it to a
// running server and checks the scoring it gets back.
package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL           string        // Base URL of the service
	Schools           int           // Number of schools
	AthletesPerSchool int           // Athletes per school, split between boys and girls
	Meets             int           // Number of meets; each has a boys' and a girls' race
	RandSeed          uint64        // Seed for the generator, so runs can be repeated
	Workers           int           // Number of concurrent submitters
	Timeout           time.Duration // HTTP request timeout
	Settle            time.Duration // How long to wait for queued results to be stored
	Verbose           bool          // Log every race checked
}

// Season is the generated data in the shapes the API accepts.
type Season struct {
	Courses  []Course  `json:"courses"`
	Schools  []School  `json:"schools"`
	Athletes []Athlete `json:"athletes"`
	Meets    []Meet    `json:"meets"`
	Races    []Race    `json:"races"`
	Results  []Result  `json:"results"`
}

type Course struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	DistanceMeters      float64  `json:"distance_meters"`
	NormalizationRating *float64 `json:"normalization_rating,omitempty"`
}

type School struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Athlete struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Gender         string `json:"gender"`
	GraduationYear int    `json:"graduation_year"`
	SchoolID       string `json:"school_id"`
}

type Meet struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	CourseID string `json:"course_id"`
}

type Race struct {
	ID       string `json:"id"`
	MeetID   string `json:"meet_id"`
	Gender   string `json:"gender"`
	Category string `json:"category"`
}

type Result struct {
	ID          string  `json:"id"`
	AthleteID   string  `json:"athlete_id"`
	RaceID      string  `json:"race_id"`
	TimeSeconds float64 `json:"time_seconds"`
	Season      int     `json:"season"`
}

// Stats holds run statistics.
type Stats struct {
	ResultsGenerated int
	ResultsAccepted  int
	ResultsRejected  int
	RacesChecked     int
	Violations       int
	StartTime        time.Time
	Duration         time.Duration
}
