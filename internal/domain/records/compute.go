package records

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/types"
)

// Compute builds the full RecordSet for one athlete or one school.
//
// Entries outside the subject are ignored, so the caller may pass a wider
// pool. An athlete set carries the athlete's bests and every rated result
// ranked fastest first. A school set needs a gender and carries school
// records, a best-per-athlete top list and team bests per course.
func Compute(entries []model.Entry, subject types.Subject, opts ...Option) (types.RecordSet, error) {
	o := computeOptions{topLimit: defaultTopLimit, teamBestLimit: defaultTeamBestLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(subject.ID) == "" {
		return types.RecordSet{}, fmt.Errorf("%w: missing id", ErrInvalidSubject)
	}

	switch subject.Kind {
	case types.SubjectAthlete:
		return computeAthlete(entries, subject, o)
	case types.SubjectSchool:
		return computeSchool(entries, subject, o)
	default:
		return types.RecordSet{}, fmt.Errorf("%w: kind %q", ErrInvalidSubject, subject.Kind)
	}
}

func computeAthlete(entries []model.Entry, subject types.Subject, o computeOptions) (types.RecordSet, error) {
	own := lo.Filter(entries, func(e model.Entry, _ int) bool {
		if e.Result.AthleteID != subject.ID {
			return false
		}
		return subject.Gender == "" || e.Gender() == subject.Gender
	})
	bests, err := AthleteBests(own)
	if err != nil {
		return types.RecordSet{}, fmt.Errorf("athlete %s: %w", subject.ID, err)
	}
	top, _, err := TopN(own, o.topLimit, ModeAllEntries)
	if err != nil {
		return types.RecordSet{}, err
	}
	return types.RecordSet{
		Subject: subject,
		Athlete: &bests,
		Top:     top,
		Skipped: bests.Skipped,
	}, nil
}

func computeSchool(entries []model.Entry, subject types.Subject, o computeOptions) (types.RecordSet, error) {
	own := lo.Filter(entries, func(e model.Entry, _ int) bool {
		return e.SchoolID() == subject.ID
	})
	school, err := SchoolRecords(own, subject.Gender)
	if err != nil {
		return types.RecordSet{}, fmt.Errorf("school %s: %w", subject.ID, err)
	}

	gendered := lo.Filter(own, func(e model.Entry, _ int) bool { return e.Gender() == subject.Gender })
	top, skipped, err := TopN(gendered, o.topLimit, ModeBestPerAthlete)
	if err != nil {
		return types.RecordSet{}, err
	}
	// Team times are only comparable on one course; ranks restart per course.
	teams := []types.TeamPerformance{}
	byCourse := lo.GroupBy(gendered, func(e model.Entry) string { return e.Course.ID })
	for _, course := range sortedKeys(byCourse) {
		best, err := TeamBests(byCourse[course], o.teamBestLimit)
		if err != nil {
			return types.RecordSet{}, err
		}
		teams = append(teams, best...)
	}
	return types.RecordSet{
		Subject:   subject,
		School:    &school,
		Top:       top,
		TeamBests: teams,
		Skipped:   skipped,
	}, nil
}
