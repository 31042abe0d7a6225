package records

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/types"
)

// teamSize is how many finishers make a team performance.
const teamSize = 5

// TopN ranks a pool by XC-equivalent time and keeps the first n.
//
// The mode must be chosen explicitly. Results on unrated courses cannot be
// compared across courses and are returned as skipped. An empty pool gives
// an empty list.
func TopN(entries []model.Entry, n int, mode Mode) ([]types.LeaderboardEntry, []types.UnscoredResult, error) {
	if !mode.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	if err := dedupe.CheckEntries(entries); err != nil {
		return nil, nil, err
	}
	p := collect(entries)
	skipped := append(p.invalid, p.unrated...)

	marks := p.rated()
	slices.SortFunc(marks, compareNormalized)
	if mode == ModeBestPerAthlete {
		marks = lo.UniqBy(marks, func(m types.Mark) string { return m.AthleteID })
	}
	if len(marks) > n {
		marks = marks[:n]
	}

	top := make([]types.LeaderboardEntry, len(marks))
	for i, m := range marks {
		top[i] = types.LeaderboardEntry{Rank: i + 1, Mark: m}
	}
	return top, skipped, nil
}

// TeamBests ranks a school's team performances by the sum of the five
// fastest raw times in each race and keeps the first n.
//
// Races where the school had fewer than five finishers are ignored. Raw
// times are summed as-is, so callers should pass results from one course.
func TeamBests(entries []model.Entry, n int) ([]types.TeamPerformance, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	if err := dedupe.CheckEntries(entries); err != nil {
		return nil, err
	}
	valid := lo.Filter(entries, func(e model.Entry, _ int) bool { return e.Result.Validate() == nil })
	type teamRace struct{ school, race string }
	groups := lo.GroupBy(valid, func(e model.Entry) teamRace {
		return teamRace{school: e.SchoolID(), race: e.Result.RaceID}
	})

	perfs := []types.TeamPerformance{}
	for key, members := range groups {
		if len(members) < teamSize {
			continue
		}
		marks := lo.Map(members, func(e model.Entry, _ int) types.Mark { return toMark(e) })
		slices.SortFunc(marks, compareRaw)
		marks = marks[:teamSize]

		first := members[0]
		perf := types.TeamPerformance{
			SchoolID: key.school,
			RaceID:   key.race,
			MeetID:   first.Meet.ID,
			MeetName: first.Meet.Name,
			Date:     first.Date(),
			CourseID: first.Course.ID,
			Runners:  marks,
		}
		for _, m := range marks {
			perf.TotalSeconds += m.RawSeconds
		}
		perfs = append(perfs, perf)
	}

	slices.SortFunc(perfs, func(a, b types.TeamPerformance) int {
		if c := cmp.Compare(a.TotalSeconds, b.TotalSeconds); c != 0 {
			return c
		}
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.RaceID, b.RaceID); c != 0 {
			return c
		}
		return cmp.Compare(a.SchoolID, b.SchoolID)
	})
	if len(perfs) > n {
		perfs = perfs[:n]
	}
	for i := range perfs {
		perfs[i].Rank = i + 1
	}
	return perfs, nil
}
