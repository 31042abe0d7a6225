// Package records derives personal bests, school records, top-N lists and
// team bests from a pool of joined results.
//
// Every function is a read-only reduction: inputs are filtered into fresh
// slices before anything is sorted, so the caller's slice is never
// reordered and repeated calls return identical output.
package records

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/types"
)

// pool is an input batch split into usable marks and rejects.
type pool struct {
	marks []types.Mark
	// invalid results are unusable everywhere.
	invalid []types.UnscoredResult
	// unrated results are usable only for same-course records.
	unrated []types.UnscoredResult
}

func collect(entries []model.Entry) pool {
	var p pool
	for _, e := range entries {
		if err := e.Result.Validate(); err != nil {
			p.invalid = append(p.invalid, skip(e, err))
			continue
		}
		m := toMark(e)
		if m.NormalizedSeconds == nil {
			_, err := normalize.Entry(e)
			p.unrated = append(p.unrated, skip(e, err))
		}
		p.marks = append(p.marks, m)
	}
	return p
}

func (p pool) rated() []types.Mark {
	return lo.Filter(p.marks, func(m types.Mark, _ int) bool {
		return m.NormalizedSeconds != nil
	})
}

func toMark(e model.Entry) types.Mark {
	m := types.Mark{
		ResultID:    e.Result.ID,
		AthleteID:   e.Result.AthleteID,
		AthleteName: e.Athlete.FullName(),
		SchoolID:    e.SchoolID(),
		MeetID:      e.Meet.ID,
		MeetName:    e.Meet.Name,
		Date:        e.Date(),
		CourseID:    e.Course.ID,
		CourseName:  e.Course.Name,
		RawSeconds:  e.Result.TimeSeconds,
		Grade:       e.Grade(),
	}
	if norm, err := normalize.Entry(e); err == nil {
		m.NormalizedSeconds = &norm
	}
	return m
}

func skip(e model.Entry, err error) types.UnscoredResult {
	return types.UnscoredResult{
		ResultID:   e.Result.ID,
		AthleteID:  e.Result.AthleteID,
		SchoolID:   e.SchoolID(),
		CourseID:   e.Course.ID,
		RawSeconds: e.Result.TimeSeconds,
		Reason:     err.Error(),
	}
}

// compareRaw orders by raw time, then earlier date, then result id.
func compareRaw(a, b types.Mark) int {
	if c := cmp.Compare(a.RawSeconds, b.RawSeconds); c != 0 {
		return c
	}
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.ResultID, b.ResultID)
}

// compareNormalized orders rated marks by XC-equivalent time, then as
// compareRaw.
func compareNormalized(a, b types.Mark) int {
	if c := cmp.Compare(*a.NormalizedSeconds, *b.NormalizedSeconds); c != 0 {
		return c
	}
	return compareRaw(a, b)
}

func fastestRaw(marks []types.Mark) types.Mark {
	return lo.MinBy(marks, func(a, b types.Mark) bool { return compareRaw(a, b) < 0 })
}

func fastestNormalized(marks []types.Mark) types.Mark {
	return lo.MinBy(marks, func(a, b types.Mark) bool { return compareNormalized(a, b) < 0 })
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// AthleteBests computes course PRs and the all-course best for one
// athlete's results.
//
// A course PR is the fastest raw time on a course and exists for unrated
// courses too. The all-course best compares XC-equivalent times and so
// only considers rated courses; it is nil when there are none.
func AthleteBests(entries []model.Entry) (types.AthleteRecords, error) {
	if len(entries) == 0 {
		return types.AthleteRecords{}, ErrInsufficientData
	}
	if err := dedupe.CheckEntries(entries); err != nil {
		return types.AthleteRecords{}, err
	}
	p := collect(entries)
	if len(p.marks) == 0 {
		return types.AthleteRecords{}, ErrInsufficientData
	}

	out := types.AthleteRecords{
		AthleteID: entries[0].Result.AthleteID,
		CoursePRs: []types.Mark{},
		Skipped:   append(p.invalid, p.unrated...),
	}
	byCourse := lo.GroupBy(p.marks, func(m types.Mark) string { return m.CourseID })
	for _, course := range sortedKeys(byCourse) {
		out.CoursePRs = append(out.CoursePRs, fastestRaw(byCourse[course]))
	}
	if rated := p.rated(); len(rated) > 0 {
		best := fastestNormalized(rated)
		out.AllCourseBest = &best
	}
	return out, nil
}

// SchoolRecords computes a school's records for one gender: the fastest
// mark per course and, per course, the fastest mark in each grade 9-12.
//
// Entries are filtered on each athlete's own gender. Within one course the
// rating is shared, so raw order equals normalized order and unrated
// courses still get records. Marks implying a grade outside 9-12 count
// toward the course record but not toward any grade record.
func SchoolRecords(entries []model.Entry, gender model.Gender) (types.SchoolRecords, error) {
	if !gender.Valid() {
		return types.SchoolRecords{}, fmt.Errorf("%w: %q", model.ErrInvalidGender, gender)
	}
	own := lo.Filter(entries, func(e model.Entry, _ int) bool { return e.Gender() == gender })
	if len(own) == 0 {
		return types.SchoolRecords{}, ErrInsufficientData
	}
	if err := dedupe.CheckEntries(own); err != nil {
		return types.SchoolRecords{}, err
	}
	p := collect(own)
	if len(p.marks) == 0 {
		return types.SchoolRecords{}, ErrInsufficientData
	}

	out := types.SchoolRecords{
		SchoolID: own[0].SchoolID(),
		Gender:   gender,
		Courses:  []types.CourseRecords{},
	}
	byCourse := lo.GroupBy(p.marks, func(m types.Mark) string { return m.CourseID })
	for _, course := range sortedKeys(byCourse) {
		marks := byCourse[course]
		overall := fastestRaw(marks)
		cr := types.CourseRecords{
			CourseID:   course,
			CourseName: overall.CourseName,
			Overall:    overall,
			ByGrade:    []types.GradeRecord{},
		}
		byGrade := lo.GroupBy(marks, func(m types.Mark) int { return m.Grade })
		for g := model.MinGrade; g <= model.MaxGrade; g++ {
			if gm, ok := byGrade[g]; ok {
				cr.ByGrade = append(cr.ByGrade, types.GradeRecord{Grade: g, Mark: fastestRaw(gm)})
			}
		}
		out.Courses = append(out.Courses, cr)
	}
	return out, nil
}
