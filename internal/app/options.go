package service

import (
	"github.com/okian/harrier/internal/adapters/repository"
	"github.com/okian/harrier/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the catalog and result store. The caller keeps ownership
// and closes it after Stop.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the (athlete, race) keys remembered at ingestion.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxLimit caps every list size a caller may ask for.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithTeamScoring sets the number of scoring runners and displacers per team.
func WithTeamScoring(scorers, displacers int) Option {
	return func(s *Service) {
		if scorers > 0 {
			s.scorers = scorers
		}
		if displacers >= 0 {
			s.displacers = displacers
		}
	}
}

// WithMoversLimit sets the default size of the big-movers lists.
func WithMoversLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.moversLimit = n
		}
	}
}

// WithLeaderboardOptions forwards options to the live leaderboard.
func WithLeaderboardOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.boardOpts = append(s.boardOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
