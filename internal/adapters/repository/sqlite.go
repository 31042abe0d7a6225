package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/okian/harrier/internal/domain/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	distance_meters REAL NOT NULL DEFAULT 0,
	difficulty_multiplier REAL,
	normalization_rating REAL
);

CREATE TABLE IF NOT EXISTS meets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	date INTEGER NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	course_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS races (
	id TEXT PRIMARY KEY,
	meet_id TEXT NOT NULL,
	gender TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schools (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS athletes (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL,
	graduation_year INTEGER NOT NULL DEFAULT 0,
	school_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	athlete_id TEXT NOT NULL,
	race_id TEXT NOT NULL,
	time_seconds REAL NOT NULL,
	place INTEGER,
	season INTEGER NOT NULL DEFAULT 0,
	UNIQUE (athlete_id, race_id)
);

CREATE INDEX IF NOT EXISTS results_race ON results (race_id);
`

// SQLiteStore is a Store on database/sql with the pure-Go SQLite driver.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps :memory: a single database.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) exists(ctx context.Context, q queryer, table, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", table, err)
	}
	return true, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// putRef upserts a row after checking that its parent exists.
func (s *SQLiteStore) putRef(ctx context.Context, parentTable, parentKind, parentID, query string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ok, err := s.exists(ctx, tx, parentTable, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(parentKind, parentID)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) PutCourse(ctx context.Context, c model.Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, name, distance_meters, difficulty_multiplier, normalization_rating)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			distance_meters = excluded.distance_meters,
			difficulty_multiplier = excluded.difficulty_multiplier,
			normalization_rating = excluded.normalization_rating`,
		c.ID, c.Name, c.DistanceMeters, nullFloat(c.DifficultyMultiplier), nullFloat(c.NormalizationRating))
	if err != nil {
		return fmt.Errorf("put course: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PutMeet(ctx context.Context, m model.Meet) error {
	if err := validateMeet(m); err != nil {
		return err
	}
	return s.putRef(ctx, "courses", "course", m.CourseID, `
		INSERT INTO meets (id, name, date, type, course_id) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, date = excluded.date, type = excluded.type, course_id = excluded.course_id`,
		m.ID, m.Name, m.Date.Unix(), m.Type, m.CourseID)
}

func (s *SQLiteStore) PutRace(ctx context.Context, r model.Race) error {
	if err := validateRace(r); err != nil {
		return err
	}
	return s.putRef(ctx, "meets", "meet", r.MeetID, `
		INSERT INTO races (id, meet_id, gender, category) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			meet_id = excluded.meet_id, gender = excluded.gender, category = excluded.category`,
		r.ID, r.MeetID, string(r.Gender), r.Category)
}

func (s *SQLiteStore) PutSchool(ctx context.Context, sc model.School) error {
	if err := validateSchool(sc); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schools (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		sc.ID, sc.Name)
	if err != nil {
		return fmt.Errorf("put school: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PutAthlete(ctx context.Context, a model.Athlete) error {
	if err := validateAthlete(a); err != nil {
		return err
	}
	return s.putRef(ctx, "schools", "school", a.SchoolID, `
		INSERT INTO athletes (id, first_name, last_name, gender, graduation_year, school_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name, last_name = excluded.last_name, gender = excluded.gender,
			graduation_year = excluded.graduation_year, school_id = excluded.school_id`,
		a.ID, a.FirstName, a.LastName, string(a.Gender), a.GraduationYear, a.SchoolID)
}

func (s *SQLiteStore) Course(ctx context.Context, id string) (model.Course, error) {
	var (
		c          model.Course
		diff, rate sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, distance_meters, difficulty_multiplier, normalization_rating FROM courses WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.DistanceMeters, &diff, &rate)
	if err != nil {
		return model.Course{}, rowErr(err, "course", id)
	}
	c.DifficultyMultiplier = floatPtr(diff)
	c.NormalizationRating = floatPtr(rate)
	return c, nil
}

func (s *SQLiteStore) Meet(ctx context.Context, id string) (model.Meet, error) {
	var (
		m    model.Meet
		date int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, date, type, course_id FROM meets WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &date, &m.Type, &m.CourseID)
	if err != nil {
		return model.Meet{}, rowErr(err, "meet", id)
	}
	m.Date = time.Unix(date, 0).UTC()
	return m, nil
}

func (s *SQLiteStore) Race(ctx context.Context, id string) (model.Race, error) {
	var r model.Race
	err := s.db.QueryRowContext(ctx, `SELECT id, meet_id, gender, category FROM races WHERE id = ?`, id).
		Scan(&r.ID, &r.MeetID, &r.Gender, &r.Category)
	if err != nil {
		return model.Race{}, rowErr(err, "race", id)
	}
	return r, nil
}

func (s *SQLiteStore) School(ctx context.Context, id string) (model.School, error) {
	var sc model.School
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM schools WHERE id = ?`, id).Scan(&sc.ID, &sc.Name)
	if err != nil {
		return model.School{}, rowErr(err, "school", id)
	}
	return sc, nil
}

func (s *SQLiteStore) Athlete(ctx context.Context, id string) (model.Athlete, error) {
	var a model.Athlete
	err := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, gender, graduation_year, school_id FROM athletes WHERE id = ?`, id).
		Scan(&a.ID, &a.FirstName, &a.LastName, &a.Gender, &a.GraduationYear, &a.SchoolID)
	if err != nil {
		return model.Athlete{}, rowErr(err, "athlete", id)
	}
	return a, nil
}

// AddResult implements Results.AddResult.
func (s *SQLiteStore) AddResult(ctx context.Context, r model.Result) error {
	if err := validateResult(r); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, ref := range []struct{ table, kind, id string }{
		{"athletes", "athlete", r.AthleteID},
		{"races", "race", r.RaceID},
	} {
		ok, err := s.exists(ctx, tx, ref.table, ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(ref.kind, ref.id)
		}
	}
	ok, err := s.exists(ctx, tx, "results", r.ID)
	if err != nil {
		return err
	}
	if ok {
		return duplicateID(r.ID)
	}
	var first string
	err = tx.QueryRowContext(ctx, `SELECT id FROM results WHERE athlete_id = ? AND race_id = ?`, r.AthleteID, r.RaceID).Scan(&first)
	switch {
	case err == nil:
		return duplicatePair(r, first)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("lookup pair: %w", err)
	}

	var place sql.NullInt64
	if r.Place != nil {
		place = sql.NullInt64{Int64: int64(*r.Place), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO results (id, athlete_id, race_id, time_seconds, place, season) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.AthleteID, r.RaceID, r.TimeSeconds, place, r.Season); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return tx.Commit()
}

const entriesQuery = `
SELECT r.id, r.athlete_id, r.race_id, r.time_seconds, r.place, r.season,
	a.first_name, a.last_name, a.gender, a.graduation_year, a.school_id,
	ra.meet_id, ra.gender, ra.category,
	m.name, m.date, m.type, m.course_id,
	c.name, c.distance_meters, c.difficulty_multiplier, c.normalization_rating,
	COALESCE(s.name, '')
FROM results r
JOIN athletes a ON a.id = r.athlete_id
JOIN races ra ON ra.id = r.race_id
JOIN meets m ON m.id = ra.meet_id
JOIN courses c ON c.id = m.course_id
LEFT JOIN schools s ON s.id = a.school_id`

// Entries implements Results.Entries with a single join query.
func (s *SQLiteStore) Entries(ctx context.Context, f Filter) ([]model.Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause, v string) {
		if v != "" {
			where = append(where, clause)
			args = append(args, v)
		}
	}
	add("r.race_id = ?", f.RaceID)
	add("r.athlete_id = ?", f.AthleteID)
	add("a.school_id = ?", f.SchoolID)
	add("m.course_id = ?", f.CourseID)
	add("a.gender = ?", string(f.Gender))

	q := entriesQuery
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY m.date, r.id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := make([]model.Entry, 0)
	for rows.Next() {
		var (
			e          model.Entry
			place      sql.NullInt64
			date       int64
			diff, rate sql.NullFloat64
		)
		if err := rows.Scan(
			&e.Result.ID, &e.Result.AthleteID, &e.Result.RaceID, &e.Result.TimeSeconds, &place, &e.Result.Season,
			&e.Athlete.FirstName, &e.Athlete.LastName, &e.Athlete.Gender, &e.Athlete.GraduationYear, &e.Athlete.SchoolID,
			&e.Race.MeetID, &e.Race.Gender, &e.Race.Category,
			&e.Meet.Name, &date, &e.Meet.Type, &e.Meet.CourseID,
			&e.Course.Name, &e.Course.DistanceMeters, &diff, &rate,
			&e.School.Name,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if place.Valid {
			p := int(place.Int64)
			e.Result.Place = &p
		}
		e.Athlete.ID = e.Result.AthleteID
		e.Race.ID = e.Result.RaceID
		e.Meet.ID = e.Race.MeetID
		e.Meet.Date = time.Unix(date, 0).UTC()
		e.Course.ID = e.Meet.CourseID
		e.Course.DifficultyMultiplier = floatPtr(diff)
		e.Course.NormalizationRating = floatPtr(rate)
		e.School.ID = e.Athlete.SchoolID
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Counts implements Store.Counts.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, t := range []struct {
		table string
		dst   *int
	}{
		{"courses", &c.Courses},
		{"meets", &c.Meets},
		{"races", &c.Races},
		{"schools", &c.Schools},
		{"athletes", &c.Athletes},
		{"results", &c.Results},
	} {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", t.table, err)
		}
	}
	return c, nil
}

func rowErr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	return fmt.Errorf("get %s: %w", kind, err)
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
