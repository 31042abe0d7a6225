// Package worker drains the submission queue: each result is stored,
// normalized and offered to the live leaderboard.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/harrier/internal/adapters/mq/queue"
	"github.com/okian/harrier/internal/adapters/repository"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/logger"
	"github.com/okian/harrier/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Store persists results and serves the joined entry back.
type Store interface {
	AddResult(ctx context.Context, r model.Result) error
	Entries(ctx context.Context, f repository.Filter) ([]model.Entry, error)
}

// Updater keeps each athlete's best normalized time.
type Updater interface {
	UpdateBest(ctx context.Context, e types.Entry) (bool, error)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Submission
}

// FailureFunc is called for every submission that could not be stored.
type FailureFunc func(ctx context.Context, s queue.Submission, err error)

// Worker processes submissions until its queue closes.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	store     Store
	updater   Updater
	onFailure FailureFunc
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, store Store, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		store:    store,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called, or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	metrics.AddWorkerActive(1)
	defer metrics.AddWorkerActive(-1)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission",
					logger.String("result_id", s.Result.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without draining.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, s queue.Submission) error {
	start := time.Now()
	defer func() { metrics.RecordWorkerProcessed(time.Since(start).Seconds()) }()

	if err := w.store.AddResult(ctx, s.Result); err != nil {
		w.fail(ctx, s, err)
		return fmt.Errorf("store result %s: %w", s.Result.ID, err)
	}
	metrics.RecordResultIngested()

	entries, err := w.store.Entries(ctx, repository.Filter{AthleteID: s.Result.AthleteID, RaceID: s.Result.RaceID})
	if err == nil && len(entries) == 0 {
		err = repository.ErrNotFound
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "lookup")
		return fmt.Errorf("reload result %s: %w", s.Result.ID, err)
	}
	e := entries[0]

	normalized, err := normalize.Entry(e)
	if err != nil {
		// Stored, but cannot take part in cross-course comparison.
		metrics.RecordUnscored("missing_rating", 1)
		w.logger.Debug(ctx, "result not ranked", logger.String("result_id", s.Result.ID), logger.Error(err))
		return nil
	}

	_, err = w.updater.UpdateBest(ctx, types.NewEntry(e, normalized))
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "leaderboard_error")
		return fmt.Errorf("leaderboard update failed: %w", err)
	}
	return nil
}

func (w *InMemoryWorker) fail(ctx context.Context, s queue.Submission, err error) {
	metrics.RecordWorkerError()
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		metrics.RecordResultDuplicate()
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordResultRejected("unknown_reference")
	case errors.Is(err, repository.ErrInvalidRecord):
		metrics.RecordResultRejected("invalid")
	default:
		metrics.RecordErrorByComponent("worker", "store_error")
	}
	if w.onFailure != nil {
		w.onFailure(ctx, s, err)
	}
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one means one per CPU.
func NewPool(workerCount int, q Queue, store Store, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, store, updater, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
