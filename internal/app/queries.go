package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/harrier/internal/adapters/repository"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/records"
	"github.com/okian/harrier/internal/domain/trend"
	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/metrics"
)

// ScoreRace scores one race from the stored results.
func (s *Service) ScoreRace(ctx context.Context, raceID string) (types.RaceScoring, error) {
	if _, err := s.store.Race(ctx, raceID); err != nil {
		return types.RaceScoring{}, err
	}
	entries, err := s.entries(ctx, "race", repository.Filter{RaceID: raceID})
	if err != nil {
		return types.RaceScoring{}, err
	}

	start := time.Now()
	out, err := s.scorer.ScoreRace(entries)
	if err != nil {
		metrics.RecordErrorByComponent("scoring", "score_race")
		return types.RaceScoring{}, fmt.Errorf("score race %s: %w", raceID, err)
	}
	metrics.RecordRaceScored(time.Since(start).Seconds())
	metrics.RecordUnscored("missing_rating", len(out.Unscored))
	return out, nil
}

// AthleteRecords returns an athlete's bests and top results.
func (s *Service) AthleteRecords(ctx context.Context, athleteID string) (types.RecordSet, error) {
	if _, err := s.store.Athlete(ctx, athleteID); err != nil {
		return types.RecordSet{}, err
	}
	entries, err := s.entries(ctx, "athlete", repository.Filter{AthleteID: athleteID})
	if err != nil {
		return types.RecordSet{}, err
	}
	set, err := records.Compute(entries,
		types.Subject{Kind: types.SubjectAthlete, ID: athleteID},
		records.WithTopLimit(s.maxLimit))
	return set, s.recordOutcome("athlete", err)
}

// SchoolRecords returns a school's course and grade records, its best
// athletes and its team bests for one gender.
func (s *Service) SchoolRecords(ctx context.Context, schoolID string, gender model.Gender) (types.RecordSet, error) {
	if !gender.Valid() {
		return types.RecordSet{}, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, model.ErrInvalidGender, gender)
	}
	if _, err := s.store.School(ctx, schoolID); err != nil {
		return types.RecordSet{}, err
	}
	entries, err := s.entries(ctx, "school", repository.Filter{SchoolID: schoolID, Gender: gender})
	if err != nil {
		return types.RecordSet{}, err
	}
	set, err := records.Compute(entries,
		types.Subject{Kind: types.SubjectSchool, ID: schoolID, Gender: gender},
		records.WithTopLimit(s.maxLimit), records.WithTeamBestLimit(s.maxLimit))
	return set, s.recordOutcome("school", err)
}

// TopN ranks stored results by XC-equivalent time. An empty schoolID ranks
// the whole league. Results on unrated courses come back as skipped.
func (s *Service) TopN(ctx context.Context, schoolID string, gender model.Gender, n int, mode records.Mode) ([]types.LeaderboardEntry, []types.UnscoredResult, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, nil, err
	}
	if !gender.Valid() {
		return nil, nil, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, model.ErrInvalidGender, gender)
	}
	if !mode.Valid() {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidArgument, records.ErrInvalidMode)
	}
	if schoolID != "" {
		if _, err := s.store.School(ctx, schoolID); err != nil {
			return nil, nil, err
		}
	}
	entries, err := s.entries(ctx, "top", repository.Filter{SchoolID: schoolID, Gender: gender})
	if err != nil {
		return nil, nil, err
	}
	top, skipped, err := records.TopN(entries, n, mode)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordUnscored("missing_rating", len(skipped))
	return top, skipped, nil
}

// TeamBests ranks a school's five-runner team times on one course.
func (s *Service) TeamBests(ctx context.Context, schoolID, courseID string, n int) ([]types.TeamPerformance, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, err
	}
	if strings.TrimSpace(courseID) == "" {
		return nil, fmt.Errorf("%w: course is required", ErrInvalidArgument)
	}
	if _, err := s.store.School(ctx, schoolID); err != nil {
		return nil, err
	}
	if _, err := s.store.Course(ctx, courseID); err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, "team_bests", repository.Filter{SchoolID: schoolID, CourseID: courseID})
	if err != nil {
		return nil, err
	}
	return records.TeamBests(entries, n)
}

// Movers lists the biggest improvers of each gender across cutoff. A limit
// of zero uses the configured default.
func (s *Service) Movers(ctx context.Context, cutoff time.Time, limit int) (types.Movers, error) {
	if cutoff.IsZero() {
		return types.Movers{}, fmt.Errorf("%w: cutoff is required", ErrInvalidArgument)
	}
	if limit == 0 {
		limit = s.moversLimit
	}
	if err := s.checkLimit(limit); err != nil {
		return types.Movers{}, err
	}
	entries, err := s.entries(ctx, "movers", repository.Filter{})
	if err != nil {
		return types.Movers{}, err
	}
	return trend.MoversByGender(entries, cutoff, limit)
}

// Improvement compares an athlete's best since cutoff with their best before it.
func (s *Service) Improvement(ctx context.Context, athleteID string, cutoff time.Time) (*types.ImprovementReport, error) {
	if cutoff.IsZero() {
		return nil, fmt.Errorf("%w: cutoff is required", ErrInvalidArgument)
	}
	a, err := s.store.Athlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, "improvement", repository.Filter{AthleteID: athleteID})
	if err != nil {
		return nil, err
	}
	report, err := trend.Improvement(trend.History(entries), cutoff)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientData) {
			metrics.RecordInsufficientData("improvement")
		}
		return nil, err
	}
	report.AthleteID = a.ID
	report.AthleteName = a.FullName()
	report.SchoolID = a.SchoolID
	report.Gender = a.Gender
	return report, nil
}

// Leaderboard reads the live best-time board for one gender.
func (s *Service) Leaderboard(ctx context.Context, gender model.Gender, n int) ([]types.Entry, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, err
	}
	board, err := s.board()
	if err != nil {
		return nil, err
	}
	return board.TopN(ctx, gender, n)
}

// LeaderboardRank returns an athlete's row on the live board.
func (s *Service) LeaderboardRank(ctx context.Context, athleteID string) (types.Entry, error) {
	board, err := s.board()
	if err != nil {
		return types.Entry{}, err
	}
	return board.Rank(ctx, athleteID)
}

func (s *Service) board() (*repository.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.leaderboard, nil
}

func (s *Service) checkLimit(n int) error {
	if n < 1 || n > s.maxLimit {
		return fmt.Errorf("%w: limit %d outside 1..%d", ErrInvalidArgument, n, s.maxLimit)
	}
	return nil
}

func (s *Service) entries(ctx context.Context, op string, f repository.Filter) ([]model.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(op, time.Since(start).Seconds()) }()
	return s.store.Entries(ctx, f)
}

func (s *Service) recordOutcome(kind string, err error) error {
	switch {
	case err == nil:
		metrics.RecordRecordsComputed(kind)
	case errors.Is(err, model.ErrInsufficientData):
		metrics.RecordInsufficientData(kind)
	default:
		metrics.RecordErrorByComponent("records", kind)
	}
	return err
}
