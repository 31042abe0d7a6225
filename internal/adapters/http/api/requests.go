package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/harrier/internal/adapters/repository"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
)

const maxBodyBytes = 1 << 20

// meetRequest carries the meet date as YYYY-MM-DD.
type meetRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	CourseID string `json:"course_id"`
}

func (m meetRequest) model() (model.Meet, error) {
	d, err := time.Parse(repository.DateLayout, strings.TrimSpace(m.Date))
	if err != nil {
		return model.Meet{}, fmt.Errorf("invalid date %q; must be %s", m.Date, repository.DateLayout)
	}
	return model.Meet{ID: m.ID, Name: m.Name, Date: d, Type: m.Type, CourseID: m.CourseID}, nil
}

type raceRequest struct {
	ID       string `json:"id"`
	MeetID   string `json:"meet_id"`
	Gender   string `json:"gender"`
	Category string `json:"category"`
}

func (r raceRequest) model() (model.Race, error) {
	g, err := model.ParseGender(r.Gender)
	if err != nil {
		return model.Race{}, err
	}
	return model.Race{ID: r.ID, MeetID: r.MeetID, Gender: g, Category: r.Category}, nil
}

type athleteRequest struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Gender         string `json:"gender"`
	GraduationYear int    `json:"graduation_year"`
	SchoolID       string `json:"school_id"`
}

func (a athleteRequest) model() (model.Athlete, error) {
	g, err := model.ParseGender(a.Gender)
	if err != nil {
		return model.Athlete{}, err
	}
	return model.Athlete{
		ID:             a.ID,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		Gender:         g,
		GraduationYear: a.GraduationYear,
		SchoolID:       a.SchoolID,
	}, nil
}

// resultRequest takes the finish either as a clock string or in seconds.
type resultRequest struct {
	ID          string  `json:"id"`
	AthleteID   string  `json:"athlete_id"`
	RaceID      string  `json:"race_id"`
	Time        string  `json:"time"`
	TimeSeconds float64 `json:"time_seconds"`
	Place       *int    `json:"place"`
	Season      int     `json:"season"`
}

func (r resultRequest) model() (model.Result, error) {
	secs := r.TimeSeconds
	if strings.TrimSpace(r.Time) != "" {
		parsed, err := normalize.ParseClock(r.Time)
		if err != nil {
			return model.Result{}, err
		}
		secs = parsed
	}
	return model.Result{
		ID:          r.ID,
		AthleteID:   r.AthleteID,
		RaceID:      r.RaceID,
		TimeSeconds: secs,
		Place:       r.Place,
		Season:      r.Season,
	}, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(err)
	}
	return nil
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// limitParam reads ?limit=, falling back to def when it is absent.
func limitParam(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest(fmt.Errorf("invalid limit %q", s))
	}
	return n, nil
}

func genderParam(r *http.Request) (model.Gender, error) {
	s := r.URL.Query().Get("gender")
	if s == "" {
		return "", badRequest(errors.New("missing gender"))
	}
	g, err := model.ParseGender(s)
	if err != nil {
		return "", badRequest(err)
	}
	return g, nil
}

// cutoffParam accepts a date or an RFC3339 timestamp.
func cutoffParam(r *http.Request) (time.Time, error) {
	s := strings.TrimSpace(r.URL.Query().Get("cutoff"))
	if s == "" {
		return time.Time{}, badRequest(errors.New("missing cutoff"))
	}
	if d, err := time.Parse(repository.DateLayout, s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, badRequest(fmt.Errorf("invalid cutoff %q", s))
	}
	return t, nil
}
