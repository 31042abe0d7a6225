package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
)

// DateLayout is the layout of meet dates in catalog files.
const DateLayout = "2006-01-02"

// catalogDoc is the on-disk shape of a catalog file. Genders and clock
// times are kept as strings and parsed at load time.
type catalogDoc struct {
	Courses  []model.Course `yaml:"courses"`
	Schools  []model.School `yaml:"schools"`
	Meets    []meetDoc      `yaml:"meets"`
	Athletes []athleteDoc   `yaml:"athletes"`
	Races    []raceDoc      `yaml:"races"`
	Results  []resultDoc    `yaml:"results"`
}

type meetDoc struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Date     string `yaml:"date"` // YYYY-MM-DD
	Type     string `yaml:"type"`
	CourseID string `yaml:"course_id"`
}

type athleteDoc struct {
	ID             string `yaml:"id"`
	FirstName      string `yaml:"first_name"`
	LastName       string `yaml:"last_name"`
	Gender         string `yaml:"gender"`
	GraduationYear int    `yaml:"graduation_year"`
	SchoolID       string `yaml:"school_id"`
}

type raceDoc struct {
	ID       string `yaml:"id"`
	MeetID   string `yaml:"meet_id"`
	Gender   string `yaml:"gender"`
	Category string `yaml:"category"`
}

type resultDoc struct {
	ID        string `yaml:"id"`
	AthleteID string `yaml:"athlete_id"`
	RaceID    string `yaml:"race_id"`
	// Time accepts seconds ("1002.4") or a clock ("16:42.4").
	Time   string `yaml:"time"`
	Place  *int   `yaml:"place"`
	Season int    `yaml:"season"`
}

func (d meetDoc) model() (model.Meet, error) {
	date, err := time.Parse(DateLayout, d.Date)
	if err != nil {
		return model.Meet{}, invalid("meet", "%s: date %q: %v", d.ID, d.Date, err)
	}
	typ := d.Type
	if typ == "" {
		typ = model.MeetRegular
	}
	return model.Meet{ID: d.ID, Name: d.Name, Date: date, Type: typ, CourseID: d.CourseID}, nil
}

func (d athleteDoc) model() (model.Athlete, error) {
	g, err := model.ParseGender(d.Gender)
	if err != nil {
		return model.Athlete{}, fmt.Errorf("%w: athlete %s: %w", ErrInvalidRecord, d.ID, err)
	}
	return model.Athlete{
		ID:             d.ID,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Gender:         g,
		GraduationYear: d.GraduationYear,
		SchoolID:       d.SchoolID,
	}, nil
}

func (d raceDoc) model() (model.Race, error) {
	g, err := model.ParseGender(d.Gender)
	if err != nil {
		return model.Race{}, fmt.Errorf("%w: race %s: %w", ErrInvalidRecord, d.ID, err)
	}
	return model.Race{ID: d.ID, MeetID: d.MeetID, Gender: g, Category: d.Category}, nil
}

func (d resultDoc) model() (model.Result, error) {
	secs, err := normalize.ParseClock(d.Time)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: result %s: %w", ErrInvalidRecord, d.ID, err)
	}
	return model.Result{
		ID:          d.ID,
		AthleteID:   d.AthleteID,
		RaceID:      d.RaceID,
		TimeSeconds: secs,
		Place:       d.Place,
		Season:      d.Season,
	}, nil
}

// LoadCatalog decodes a YAML catalog from r and writes it into s in
// dependency order. A file that lists one (athlete, race) pair twice is
// rejected before anything is written. Otherwise it stops at the first
// rejected record and returns the number of records written so far.
func LoadCatalog(ctx context.Context, r io.Reader, s Store) (Counts, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return Counts{}, fmt.Errorf("catalog: parse yaml: %w", err)
	}

	results := make([]model.Result, 0, len(doc.Results))
	for _, d := range doc.Results {
		res, err := d.model()
		if err != nil {
			return Counts{}, fmt.Errorf("catalog: %w", err)
		}
		results = append(results, res)
	}
	if err := dedupe.CheckResults(results); err != nil {
		return Counts{}, fmt.Errorf("catalog: %w", err)
	}

	var n Counts
	for _, c := range doc.Courses {
		if err := s.PutCourse(ctx, c); err != nil {
			return n, fmt.Errorf("catalog: %w", err)
		}
		n.Courses++
	}
	for _, sc := range doc.Schools {
		if err := s.PutSchool(ctx, sc); err != nil {
			return n, fmt.Errorf("catalog: %w", err)
		}
		n.Schools++
	}
	for _, d := range doc.Meets {
		m, err := d.model()
		if err == nil {
			err = s.PutMeet(ctx, m)
		}
		if err != nil {
			return n, fmt.Errorf("catalog: %w", err)
		}
		n.Meets++
	}
	for _, d := range doc.Athletes {
		a, err := d.model()
		if err == nil {
			err = s.PutAthlete(ctx, a)
		}
		if err != nil {
			return n, fmt.Errorf("catalog: %w", err)
		}
		n.Athletes++
	}
	for _, d := range doc.Races {
		race, err := d.model()
		if err == nil {
			err = s.PutRace(ctx, race)
		}
		if err != nil {
			return n, fmt.Errorf("catalog: %w", err)
		}
		n.Races++
	}
	for _, res := range results {
		if err := s.AddResult(ctx, res); err != nil {
			return n, fmt.Errorf("catalog: %w", err)
		}
		n.Results++
	}
	return n, nil
}

// LoadCatalogFile is LoadCatalog over the file at path.
func LoadCatalogFile(ctx context.Context, path string, s Store) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Counts{}, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()
	return LoadCatalog(ctx, f, s)
}
