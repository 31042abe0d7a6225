package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/okian/harrier/internal/domain/model"
)

// MemStore is an in-memory Store guarded by a single RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	courses  map[string]model.Course
	meets    map[string]model.Meet
	races    map[string]model.Race
	schools  map[string]model.School
	athletes map[string]model.Athlete
	results  map[string]model.Result
	pairs    map[string]string // pair key -> result id
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		courses:  make(map[string]model.Course),
		meets:    make(map[string]model.Meet),
		races:    make(map[string]model.Race),
		schools:  make(map[string]model.School),
		athletes: make(map[string]model.Athlete),
		results:  make(map[string]model.Result),
		pairs:    make(map[string]string),
	}
}

func (s *MemStore) PutCourse(_ context.Context, c model.Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
	return nil
}

func (s *MemStore) PutMeet(_ context.Context, m model.Meet) error {
	if err := validateMeet(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[m.CourseID]; !ok {
		return notFound("course", m.CourseID)
	}
	s.meets[m.ID] = m
	return nil
}

func (s *MemStore) PutRace(_ context.Context, r model.Race) error {
	if err := validateRace(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meets[r.MeetID]; !ok {
		return notFound("meet", r.MeetID)
	}
	s.races[r.ID] = r
	return nil
}

func (s *MemStore) PutSchool(_ context.Context, sc model.School) error {
	if err := validateSchool(sc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schools[sc.ID] = sc
	return nil
}

func (s *MemStore) PutAthlete(_ context.Context, a model.Athlete) error {
	if err := validateAthlete(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[a.SchoolID]; !ok {
		return notFound("school", a.SchoolID)
	}
	s.athletes[a.ID] = a
	return nil
}

func lookup[T any](mu *sync.RWMutex, m map[string]T, kind, id string) (T, error) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := m[id]
	if !ok {
		var zero T
		return zero, notFound(kind, id)
	}
	return v, nil
}

func (s *MemStore) Course(_ context.Context, id string) (model.Course, error) {
	return lookup(&s.mu, s.courses, "course", id)
}

func (s *MemStore) Meet(_ context.Context, id string) (model.Meet, error) {
	return lookup(&s.mu, s.meets, "meet", id)
}

func (s *MemStore) Race(_ context.Context, id string) (model.Race, error) {
	return lookup(&s.mu, s.races, "race", id)
}

func (s *MemStore) School(_ context.Context, id string) (model.School, error) {
	return lookup(&s.mu, s.schools, "school", id)
}

func (s *MemStore) Athlete(_ context.Context, id string) (model.Athlete, error) {
	return lookup(&s.mu, s.athletes, "athlete", id)
}

// AddResult implements Results.AddResult.
func (s *MemStore) AddResult(_ context.Context, r model.Result) error {
	if err := validateResult(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.athletes[r.AthleteID]; !ok {
		return notFound("athlete", r.AthleteID)
	}
	if _, ok := s.races[r.RaceID]; !ok {
		return notFound("race", r.RaceID)
	}
	if _, ok := s.results[r.ID]; ok {
		return duplicateID(r.ID)
	}
	if first, ok := s.pairs[r.Key()]; ok {
		return duplicatePair(r, first)
	}
	s.results[r.ID] = r
	s.pairs[r.Key()] = r.ID
	return nil
}

// Entries implements Results.Entries.
func (s *MemStore) Entries(_ context.Context, f Filter) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Entry, 0)
	for _, r := range s.results {
		e, ok := s.join(r)
		if !ok || !f.Match(e) {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

// join assumes the read lock is held.
func (s *MemStore) join(r model.Result) (model.Entry, bool) {
	a, ok := s.athletes[r.AthleteID]
	if !ok {
		return model.Entry{}, false
	}
	race, ok := s.races[r.RaceID]
	if !ok {
		return model.Entry{}, false
	}
	meet := s.meets[race.MeetID]
	return model.Entry{
		Result:  r,
		Athlete: a,
		Race:    race,
		Meet:    meet,
		Course:  s.courses[meet.CourseID],
		School:  s.schools[a.SchoolID],
	}, true
}

// Counts implements Store.Counts.
func (s *MemStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Courses:  len(s.courses),
		Meets:    len(s.meets),
		Races:    len(s.races),
		Schools:  len(s.schools),
		Athletes: len(s.athletes),
		Results:  len(s.results),
	}, nil
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }

func sortEntries(entries []model.Entry) {
	slices.SortFunc(entries, func(a, b model.Entry) int {
		if c := a.Meet.Date.Compare(b.Meet.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Result.ID, b.Result.ID)
	})
}
