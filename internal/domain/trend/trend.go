// Package trend measures athlete improvement across a cutoff date.
package trend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/types"
)

// Improvement compares the best XC-equivalent time dated on or after cutoff
// against the best dated before it.
//
// It returns ErrInsufficientData when either side is empty. A slower or
// equal recent best is reported with Improved false and a zero percentage;
// regressions are never expressed as negative improvement.
func Improvement(history []types.DatedTime, cutoff time.Time) (*types.ImprovementReport, error) {
	before := lo.Filter(history, func(d types.DatedTime, _ int) bool { return d.Date.Before(cutoff) })
	recent := lo.Filter(history, func(d types.DatedTime, _ int) bool { return !d.Date.Before(cutoff) })
	if len(before) == 0 || len(recent) == 0 {
		return nil, ErrInsufficientData
	}

	report := &types.ImprovementReport{
		Cutoff: cutoff,
		OldPR:  fastest(before),
		NewPR:  fastest(recent),
	}
	if report.NewPR.NormalizedSeconds < report.OldPR.NormalizedSeconds {
		report.Improved = true
		old := report.OldPR.NormalizedSeconds
		report.ImprovementPct = (old - report.NewPR.NormalizedSeconds) / old * 100
	}
	return report, nil
}

func fastest(points []types.DatedTime) types.DatedTime {
	return lo.MinBy(points, func(a, b types.DatedTime) bool {
		if a.NormalizedSeconds != b.NormalizedSeconds {
			return a.NormalizedSeconds < b.NormalizedSeconds
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ResultID < b.ResultID
	})
}

// History turns an athlete's entries into dated XC-equivalent times.
// Results on unrated courses and invalid results are left out.
func History(entries []model.Entry) []types.DatedTime {
	out := make([]types.DatedTime, 0, len(entries))
	for _, e := range entries {
		if e.Result.Validate() != nil {
			continue
		}
		norm, err := normalize.Entry(e)
		if err != nil {
			continue
		}
		out = append(out, types.DatedTime{ResultID: e.Result.ID, Date: e.Date(), NormalizedSeconds: norm})
	}
	return out
}

// BigMovers lists the athletes of one gender with the largest improvement
// across cutoff, biggest first, ties by athlete id. Each athlete is matched
// on their own gender field.
func BigMovers(entries []model.Entry, gender model.Gender, cutoff time.Time, limit int) ([]types.ImprovementReport, error) {
	if !gender.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidGender, gender)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	own := lo.Filter(entries, func(e model.Entry, _ int) bool { return e.Gender() == gender })
	if err := dedupe.CheckEntries(own); err != nil {
		return nil, err
	}

	movers := []types.ImprovementReport{}
	for _, results := range lo.GroupBy(own, func(e model.Entry) string { return e.Result.AthleteID }) {
		report, err := Improvement(History(results), cutoff)
		if errors.Is(err, ErrInsufficientData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !report.Improved {
			continue
		}
		a := results[0].Athlete
		report.AthleteID = results[0].Result.AthleteID
		report.AthleteName = a.FullName()
		report.SchoolID = results[0].SchoolID()
		report.Gender = a.Gender
		movers = append(movers, *report)
	}

	slices.SortFunc(movers, func(a, b types.ImprovementReport) int {
		if c := cmp.Compare(b.ImprovementPct, a.ImprovementPct); c != 0 {
			return c
		}
		return cmp.Compare(a.AthleteID, b.AthleteID)
	})
	if len(movers) > limit {
		movers = movers[:limit]
	}
	return movers, nil
}

// MoversByGender computes boys' and girls' movers, each with its own
// gender filter.
func MoversByGender(entries []model.Entry, cutoff time.Time, limit int) (types.Movers, error) {
	boys, err := BigMovers(entries, model.GenderMale, cutoff, limit)
	if err != nil {
		return types.Movers{}, fmt.Errorf("boys: %w", err)
	}
	girls, err := BigMovers(entries, model.GenderFemale, cutoff, limit)
	if err != nil {
		return types.Movers{}, fmt.Errorf("girls: %w", err)
	}
	return types.Movers{Cutoff: cutoff, Boys: boys, Girls: girls}, nil
}
