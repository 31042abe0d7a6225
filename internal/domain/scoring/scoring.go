// Package scoring ranks the finishers of a single race and computes
// displacement-style team scores.
//
// A school with at least Scorers finishers is a complete team. Its top
// Scorers+Displacers runners qualify for a scoring place; everyone else is
// ignored when scoring places are handed out. A team's score is the sum of
// the scoring places of its counting runners and lower is better.
package scoring

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/types"
)

// Default team sizes for the standard 5-score, 2-displacer format.
const (
	defaultScorers    = 5
	defaultDisplacers = 2
)

// Tie-break labels set on TeamStanding.TieBreak.
const (
	TieBreakSchoolID = "school-id"
)

// TieBreakDisplacer returns the label used when the n-th displacer
// (1-based) separated two equal scores.
func TieBreakDisplacer(n int) string {
	return fmt.Sprintf("displacer-%d", n)
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithScorers sets how many runners count toward a team score.
func WithScorers(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.scorers = n
		}
	}
}

// WithDisplacers sets how many runners behind the scorers still take a
// scoring place.
func WithDisplacers(n int) Option {
	return func(s *Scorer) {
		if n >= 0 {
			s.displacers = n
		}
	}
}

// Scorer computes RaceScoring values. It holds no state between calls.
type Scorer struct {
	scorers    int
	displacers int
}

// New creates a Scorer with the standard 5+2 format unless overridden.
func New(opts ...Option) *Scorer {
	s := &Scorer{scorers: defaultScorers, displacers: defaultDisplacers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scorers returns the configured number of counting runners.
func (s *Scorer) Scorers() int { return s.scorers }

// Displacers returns the configured number of displacers.
func (s *Scorer) Displacers() int { return s.displacers }

// ScoreRace scores entries with a default Scorer.
func ScoreRace(entries []model.Entry, opts ...Option) (types.RaceScoring, error) {
	return New(opts...).ScoreRace(entries)
}

// runner is a placed finisher while scoring is in progress.
type runner struct {
	entry     model.Entry
	placement types.RunnerPlacement
}

// ScoreRace places every finisher, builds teams, hands out scoring places
// and ranks complete teams. All entries must belong to the same race.
// Results on a course without a normalization rating are reported in
// Unscored and take no part in placement.
func (s *Scorer) ScoreRace(entries []model.Entry) (types.RaceScoring, error) {
	out := types.RaceScoring{
		Overall:    []types.RunnerPlacement{},
		Standings:  []types.TeamStanding{},
		Incomplete: []types.IncompleteTeam{},
		Unscored:   []types.UnscoredResult{},
	}
	if len(entries) == 0 {
		return out, nil
	}
	if err := dedupe.CheckEntries(entries); err != nil {
		return types.RaceScoring{}, err
	}

	first := entries[0]
	out.RaceID = first.Result.RaceID
	out.Gender = first.Race.Gender
	out.Category = first.Race.Category

	runners := make([]*runner, 0, len(entries))
	for _, e := range entries {
		if e.Result.RaceID != out.RaceID {
			return types.RaceScoring{}, &MixedRaceError{Want: out.RaceID, Got: e.Result.RaceID, ResultID: e.Result.ID}
		}
		if err := e.Result.Validate(); err != nil {
			out.Unscored = append(out.Unscored, unscored(e, err))
			continue
		}
		norm, err := normalize.Entry(e)
		if err != nil {
			out.Unscored = append(out.Unscored, unscored(e, err))
			continue
		}
		runners = append(runners, &runner{
			entry: e,
			placement: types.RunnerPlacement{
				ResultID:          e.Result.ID,
				AthleteID:         e.Result.AthleteID,
				AthleteName:       e.Athlete.FullName(),
				SchoolID:          e.SchoolID(),
				RawSeconds:        e.Result.TimeSeconds,
				NormalizedSeconds: norm,
			},
		})
	}

	slices.SortFunc(runners, compareRunners)
	for i, r := range runners {
		r.placement.OverallPlace = i + 1
	}

	teams := groupBySchool(runners)
	qualifying := s.scorers + s.displacers
	for _, team := range teams {
		if len(team) < s.scorers {
			for _, r := range team {
				r.placement.Role = types.RoleIncomplete
			}
			continue
		}
		for i, r := range team {
			tp := i + 1
			r.placement.TeamPlace = tp
			switch {
			case tp <= s.scorers:
				r.placement.Role = types.RoleCounting
			case tp <= qualifying:
				r.placement.Role = types.RoleDisplacer
			default:
				r.placement.Role = types.RoleNonCounting
			}
		}
	}

	// Scoring places skip everyone who is not a qualifier.
	next := 0
	for _, r := range runners {
		if r.placement.Role != types.RoleCounting && r.placement.Role != types.RoleDisplacer {
			continue
		}
		next++
		sp := next
		r.placement.ScoringPlace = &sp
	}

	for _, r := range runners {
		out.Overall = append(out.Overall, r.placement)
	}

	for _, team := range sortedSchools(teams) {
		members := teams[team]
		placements := make([]types.RunnerPlacement, len(members))
		for i, r := range members {
			placements[i] = r.placement
		}
		name := members[0].entry.School.Name
		if len(members) < s.scorers {
			out.Incomplete = append(out.Incomplete, types.IncompleteTeam{
				SchoolID:   team,
				SchoolName: name,
				Runners:    placements,
			})
			continue
		}
		score := 0
		for _, p := range placements[:s.scorers] {
			score += *p.ScoringPlace
		}
		out.Standings = append(out.Standings, types.TeamStanding{
			SchoolID:   team,
			SchoolName: name,
			Score:      score,
			Runners:    placements,
		})
	}

	s.rank(out.Standings)
	return out, nil
}

// rank orders standings by score and labels the rule that split each tie.
func (s *Scorer) rank(standings []types.TeamStanding) {
	slices.SortFunc(standings, func(a, b types.TeamStanding) int {
		c, _ := s.compareTeams(a, b)
		return c
	})
	for i := range standings {
		standings[i].Rank = i + 1
		if i == 0 || standings[i].Score != standings[i-1].Score {
			continue
		}
		_, rule := s.compareTeams(standings[i-1], standings[i])
		if standings[i-1].TieBreak == "" {
			standings[i-1].TieBreak = rule
		}
		standings[i].TieBreak = rule
	}
}

// compareTeams orders by score, then by each displacer's scoring place in
// turn, then by school id. A team without a runner at the compared
// team-place loses to one that has it.
func (s *Scorer) compareTeams(a, b types.TeamStanding) (int, string) {
	if c := cmp.Compare(a.Score, b.Score); c != 0 {
		return c, ""
	}
	for k := 0; k < s.displacers; k++ {
		idx := s.scorers + k
		pa, pb := scoringPlaceAt(a.Runners, idx), scoringPlaceAt(b.Runners, idx)
		switch {
		case pa == 0 && pb == 0:
			continue
		case pa == 0:
			return 1, TieBreakDisplacer(k + 1)
		case pb == 0:
			return -1, TieBreakDisplacer(k + 1)
		case pa != pb:
			return cmp.Compare(pa, pb), TieBreakDisplacer(k + 1)
		}
	}
	return cmp.Compare(a.SchoolID, b.SchoolID), TieBreakSchoolID
}

func scoringPlaceAt(runners []types.RunnerPlacement, idx int) int {
	if idx >= len(runners) || runners[idx].ScoringPlace == nil {
		return 0
	}
	return *runners[idx].ScoringPlace
}

// compareRunners is the overall finish order: normalized time, then raw
// time, then result id.
func compareRunners(a, b *runner) int {
	if c := cmp.Compare(a.placement.NormalizedSeconds, b.placement.NormalizedSeconds); c != 0 {
		return c
	}
	if c := cmp.Compare(a.placement.RawSeconds, b.placement.RawSeconds); c != 0 {
		return c
	}
	return cmp.Compare(a.placement.ResultID, b.placement.ResultID)
}

// groupBySchool keeps each school's runners in overall order.
func groupBySchool(runners []*runner) map[string][]*runner {
	teams := make(map[string][]*runner)
	for _, r := range runners {
		id := r.placement.SchoolID
		teams[id] = append(teams[id], r)
	}
	return teams
}

func sortedSchools(teams map[string][]*runner) []string {
	ids := make([]string, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func unscored(e model.Entry, err error) types.UnscoredResult {
	return types.UnscoredResult{
		ResultID:   e.Result.ID,
		AthleteID:  e.Result.AthleteID,
		SchoolID:   e.SchoolID(),
		CourseID:   e.Course.ID,
		RawSeconds: e.Result.TimeSeconds,
		Reason:     err.Error(),
	}
}
