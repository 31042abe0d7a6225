package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/harrier/pkg/logger"
)

// ErrViolations is returned when the server's answers break a scoring rule.
var ErrViolations = errors.New("verification failed")

// Run generates a season, posts it, waits for it to be stored and checks
// every race and both leaderboards.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting harrier seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("schools", cfg.Schools),
		logger.Int("athletesPerSchool", cfg.AthletesPerSchool),
		logger.Int("meets", cfg.Meets),
		logger.Int64("seed", int64(cfg.RandSeed)),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: health
	if err := c.Get(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: generate
	season := Generate(cfg)
	stats.ResultsGenerated = len(season.Results)
	log.Info(ctx, "season generated", logger.Int("results", stats.ResultsGenerated))

	// Step 3: catalog, then results
	if err := postCatalog(ctx, c, season); err != nil {
		return stats, fmt.Errorf("catalog: %w", err)
	}
	if err := submitResults(ctx, cfg, c, season.Results, stats); err != nil {
		return stats, fmt.Errorf("result submission failed: %w", err)
	}

	// Step 4: wait for the workers to store what was accepted
	if err := waitStored(ctx, cfg, c, stats.ResultsAccepted); err != nil {
		return stats, fmt.Errorf("waiting for results: %w", err)
	}

	// Step 5: verify
	if err := verifyRaces(ctx, cfg, c, season.Races, stats); err != nil {
		return stats, fmt.Errorf("race verification failed: %w", err)
	}
	if err := verifyLeaderboard(ctx, c, stats); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}

	stats.Duration = time.Since(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d violations", ErrViolations, stats.Violations)
	}
	return stats, nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.ResultsAccepted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("resultsGenerated", stats.ResultsGenerated),
		logger.Int("resultsAccepted", stats.ResultsAccepted),
		logger.Int("resultsRejected", stats.ResultsRejected),
		logger.Int("racesChecked", stats.RacesChecked),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("resultsPerSecond", perSecond))
}
