// Package service wires the repository, ingestion queue, workers and the
// domain engine into the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/harrier/internal/adapters/mq/queue"
	"github.com/okian/harrier/internal/adapters/mq/worker"
	"github.com/okian/harrier/internal/adapters/repository"
	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/scoring"
	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/logger"
	"github.com/okian/harrier/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store       repository.Store
	leaderboard *repository.Leaderboard
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	pool        *worker.Pool
	scorer      *scoring.Scorer

	workerCount int
	queueSize   int
	dedupeSize  int
	maxLimit    int
	scorers     int
	displacers  int
	moversLimit int
	boardOpts   []repository.Option

	started bool
	logger  logger.Logger
}

// New constructs a Service. Start must be called before results can be
// submitted or the live leaderboard read.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  500_000,
		maxLimit:    100,
		scorers:     5,
		displacers:  2,
		moversLimit: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.scorer = scoring.New(scoring.WithScorers(s.scorers), scoring.WithDisplacers(s.displacers))
	return s
}

// Store exposes the underlying store.
func (s *Service) Store() repository.Store { return s.store }

// Start builds the leaderboard, deduper, queue and workers, then warms the
// leaderboard and deduper from results already in the store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting service...")
	s.leaderboard = repository.NewLeaderboard(ctx, s.boardOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	if err := s.warm(ctx); err != nil {
		_ = s.leaderboard.Close()
		return fmt.Errorf("warm from store: %w", err)
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, s.leaderboard,
		worker.WithFailureHandler(s.onIngestFailure))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

func (s *Service) warm(ctx context.Context) error {
	entries, err := s.store.Entries(ctx, repository.Filter{})
	if err != nil {
		return err
	}
	ranked := 0
	for _, e := range entries {
		s.deduper.SeenAndRecord(ctx, e.Key())
		n, err := normalize.Entry(e)
		if err != nil {
			continue
		}
		if _, err := s.leaderboard.UpdateBest(ctx, types.NewEntry(e, n)); err != nil {
			return err
		}
		ranked++
	}
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return err
	}
	counts.Each(metrics.UpdateRepositoryRecords)
	s.logger.Info(ctx, "warmed from store",
		logger.Int("results", len(entries)), logger.Int("ranked", ranked))
	return nil
}

// Stop drains pending submissions and stops the workers. The store stays open.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.leaderboard.Close()
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// SubmitResult validates r and queues it for storage. A missing id is
// generated. The (athlete, race) pair is rejected with ErrDuplicate when
// already seen, and ErrBackpressure is returned when the queue is full.
func (s *Service) SubmitResult(ctx context.Context, r model.Result) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", ErrNotStarted
	}

	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		metrics.RecordResultRejected("invalid")
		return "", fmt.Errorf("%w: %w", repository.ErrInvalidRecord, err)
	}
	if _, err := s.store.Athlete(ctx, r.AthleteID); err != nil {
		metrics.RecordResultRejected("unknown_reference")
		return "", err
	}
	if _, err := s.store.Race(ctx, r.RaceID); err != nil {
		metrics.RecordResultRejected("unknown_reference")
		return "", err
	}

	if s.deduper.SeenAndRecord(ctx, r.Key()) {
		metrics.RecordResultDuplicate()
		return "", fmt.Errorf("athlete %q race %q: %w", r.AthleteID, r.RaceID, repository.ErrDuplicate)
	}
	// The deduper is bounded, so a miss may be an evicted pair.
	stored, err := s.entries(ctx, "pair", repository.Filter{AthleteID: r.AthleteID, RaceID: r.RaceID})
	if err != nil {
		s.deduper.Unrecord(ctx, r.Key())
		return "", fmt.Errorf("check stored pair: %w", err)
	}
	if len(stored) > 0 {
		metrics.RecordResultDuplicate()
		return "", fmt.Errorf("%w: %w", repository.ErrDuplicate, &dedupe.DuplicateResultError{
			AthleteID:      r.AthleteID,
			RaceID:         r.RaceID,
			FirstResultID:  stored[0].Result.ID,
			SecondResultID: r.ID,
		})
	}

	err = s.queue.Enqueue(ctx, queue.Submission{Result: r, ReceivedAt: time.Now()})
	if err != nil {
		s.deduper.Unrecord(ctx, r.Key())
		switch {
		case errors.Is(err, queue.ErrFull):
			return "", fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, queue.ErrClosed):
			return "", fmt.Errorf("%w: %w", ErrNotStarted, err)
		default:
			return "", err
		}
	}
	s.logger.Debug(ctx, "result queued",
		logger.String("result_id", r.ID), logger.String("pair", r.Key()))
	return r.ID, nil
}

// onIngestFailure forgets the pair of a submission the store refused so it
// can be sent again. A duplicate stays remembered since the pair is stored.
func (s *Service) onIngestFailure(ctx context.Context, sub queue.Submission, err error) {
	if errors.Is(err, repository.ErrDuplicate) {
		return
	}
	s.deduper.Unrecord(ctx, sub.Result.Key())
	s.logger.Warn(ctx, "submission rejected",
		logger.String("result_id", sub.Result.ID), logger.Error(err))
}

// Catalog upserts.

func (s *Service) PutCourse(ctx context.Context, c model.Course) error {
	if err := s.put(ctx, "courses", s.store.PutCourse(ctx, c)); err != nil {
		return err
	}
	s.logger.Debug(ctx, "course stored",
		logger.String("course", c.ID),
		logger.String("difficulty", normalize.Difficulty(c)),
		logger.Bool("rated", c.Rated()))
	return nil
}

func (s *Service) PutMeet(ctx context.Context, m model.Meet) error {
	if m.Type == "" {
		m.Type = model.MeetRegular
	}
	return s.put(ctx, "meets", s.store.PutMeet(ctx, m))
}

func (s *Service) PutRace(ctx context.Context, r model.Race) error {
	return s.put(ctx, "races", s.store.PutRace(ctx, r))
}

func (s *Service) PutSchool(ctx context.Context, sc model.School) error {
	return s.put(ctx, "schools", s.store.PutSchool(ctx, sc))
}

func (s *Service) PutAthlete(ctx context.Context, a model.Athlete) error {
	return s.put(ctx, "athletes", s.store.PutAthlete(ctx, a))
}

func (s *Service) put(ctx context.Context, kind string, err error) error {
	if err != nil {
		metrics.RecordErrorByComponent("catalog", kind)
		return err
	}
	if counts, err := s.store.Counts(ctx); err == nil {
		counts.Each(metrics.UpdateRepositoryRecords)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"scorers":     s.scorers,
		"displacers":  s.displacers,
	}
	if counts, err := s.store.Counts(ctx); err == nil {
		stats["records"] = counts
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["dedupeKeys"] = s.deduper.Size()
		stats["boys"] = s.leaderboard.Count(ctx, model.GenderMale)
		stats["girls"] = s.leaderboard.Count(ctx, model.GenderFemale)
		if snap := s.leaderboard.Snapshot(); snap != nil {
			stats["snapshotAt"] = snap.At
		}
		metrics.UpdateQueueSize(s.queue.Len(), s.queue.Cap())
	}
	return stats
}
