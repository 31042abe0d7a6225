package seed

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/logger"
)

// leaderboardDepth is how many live rows are checked per gender.
const leaderboardDepth = 50

// verifyRaces fetches the scoring of every race and checks it.
func verifyRaces(ctx context.Context, cfg *Config, c *Client, races []Race, stats *Stats) error {
	var checked, violations atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, race := range races {
		g.Go(func() error {
			var sc types.RaceScoring
			if err := c.Get(gctx, "/races/"+url.PathEscape(race.ID)+"/scoring", &sc); err != nil {
				return err
			}
			checked.Add(1)
			problems := CheckScoring(sc)
			violations.Add(int64(len(problems)))
			for _, p := range problems {
				logger.Get().Error(gctx, "scoring violation", logger.String("race", race.ID), logger.String("problem", p))
			}
			if cfg.Verbose {
				logger.Get().Info(gctx, "race checked",
					logger.String("race", race.ID),
					logger.Int("finishers", len(sc.Overall)),
					logger.Int("teams", len(sc.Standings)),
					logger.Int("unscored", len(sc.Unscored)))
			}
			return nil
		})
	}
	err := g.Wait()
	stats.RacesChecked = int(checked.Load())
	stats.Violations += int(violations.Load())
	return err
}

// verifyLeaderboard checks rank order on both live boards.
func verifyLeaderboard(ctx context.Context, c *Client, stats *Stats) error {
	for _, gender := range []string{"M", "F"} {
		var rows []types.Entry
		path := fmt.Sprintf("/leaderboard?gender=%s&limit=%d", gender, leaderboardDepth)
		if err := c.Get(ctx, path, &rows); err != nil {
			return err
		}
		for _, p := range CheckLeaderboard(rows) {
			stats.Violations++
			logger.Get().Error(ctx, "leaderboard violation", logger.String("gender", gender), logger.String("problem", p))
		}
	}
	return nil
}

// CheckScoring returns every broken scoring rule found in sc.
func CheckScoring(sc types.RaceScoring) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	next := 1
	for i, r := range sc.Overall {
		if r.OverallPlace != i+1 {
			report("overall row %d has place %d", i+1, r.OverallPlace)
		}
		if i > 0 && r.NormalizedSeconds < sc.Overall[i-1].NormalizedSeconds {
			report("overall row %d is faster than the row above", i+1)
		}
		qualifier := r.Role == types.RoleCounting || r.Role == types.RoleDisplacer
		switch {
		case !qualifier && r.ScoringPlace != nil:
			report("non-qualifier %s has scoring place %d", r.ResultID, *r.ScoringPlace)
		case qualifier && r.ScoringPlace == nil:
			report("qualifier %s has no scoring place", r.ResultID)
		case r.ScoringPlace != nil:
			if *r.ScoringPlace != next {
				report("qualifier %s has scoring place %d, want %d", r.ResultID, *r.ScoringPlace, next)
			}
			next++
		}
	}

	for i, st := range sc.Standings {
		if st.Rank != i+1 {
			report("standing %d has rank %d", i+1, st.Rank)
		}
		if i > 0 && st.Score < sc.Standings[i-1].Score {
			report("%s scores %d below %s", st.SchoolID, st.Score, sc.Standings[i-1].SchoolID)
		}
		sum := 0
		for _, r := range st.Runners {
			if r.Role == types.RoleCounting && r.ScoringPlace != nil {
				sum += *r.ScoringPlace
			}
		}
		if sum != st.Score {
			report("%s score %d, counting places sum to %d", st.SchoolID, st.Score, sum)
		}
	}

	for _, t := range sc.Incomplete {
		for _, r := range t.Runners {
			if r.ScoringPlace != nil {
				report("incomplete team %s runner %s has a scoring place", t.SchoolID, r.ResultID)
			}
		}
	}
	return problems
}

// CheckLeaderboard returns every ordering problem in rows. Equal times must
// share a rank and the next distinct time skips past the tie.
func CheckLeaderboard(rows []types.Entry) []string {
	var problems []string
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		if seen[r.AthleteID] {
			problems = append(problems, fmt.Sprintf("athlete %s listed twice", r.AthleteID))
		}
		seen[r.AthleteID] = true

		want := 1
		if i > 0 {
			prev := rows[i-1]
			cur, above := micros(r.NormalizedSeconds), micros(prev.NormalizedSeconds)
			switch {
			case cur < above:
				problems = append(problems, fmt.Sprintf("row %d is faster than the row above", i+1))
				want = r.Rank
			case cur == above:
				want = prev.Rank
			default:
				want = i + 1
			}
		}
		if r.Rank != want {
			problems = append(problems, fmt.Sprintf("row %d has rank %d, want %d", i+1, r.Rank, want))
		}
	}
	return problems
}

// micros converts to the board's own time resolution.
func micros(sec float64) int64 {
	return int64(math.Round(sec * 1e6))
}
