package records_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/records"
	"github.com/okian/harrier/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func rating(r float64) *float64 { return &r }

var (
	flat    = model.Course{ID: "c1", Name: "Flat Park", NormalizationRating: rating(1.0)}
	fast    = model.Course{ID: "c2", Name: "Downhill Farm", NormalizationRating: rating(0.95)}
	unrated = model.Course{ID: "c3", Name: "New Course"}

	meets = map[string]struct {
		meet   model.Meet
		course model.Course
	}{
		"m1": {model.Meet{ID: "m1", Name: "Opener", Date: time.Date(2024, time.September, 14, 0, 0, 0, 0, time.UTC)}, flat},
		"m2": {model.Meet{ID: "m2", Name: "Invite", Date: time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC)}, fast},
		"m3": {model.Meet{ID: "m3", Name: "League", Date: time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC)}, unrated},
		"m4": {model.Meet{ID: "m4", Name: "Opener", Date: time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC)}, flat},
	}

	athletes = map[string]model.Athlete{
		"a1": {ID: "a1", FirstName: "Sam", LastName: "Reed", Gender: model.GenderMale, GraduationYear: 2026, SchoolID: "s1"},
		"a2": {ID: "a2", FirstName: "Eli", LastName: "Park", Gender: model.GenderMale, GraduationYear: 2025, SchoolID: "s1"},
		"a3": {ID: "a3", FirstName: "Max", LastName: "Young", Gender: model.GenderMale, GraduationYear: 2030, SchoolID: "s1"},
		"g1": {ID: "g1", FirstName: "Ivy", LastName: "Hale", Gender: model.GenderFemale, GraduationYear: 2026, SchoolID: "s1"},
	}
)

func entry(id, athleteID, meetID string, raw float64) model.Entry {
	a := athletes[athleteID]
	m := meets[meetID]
	race := model.Race{ID: fmt.Sprintf("%s-%s", meetID, a.Gender), MeetID: meetID, Gender: a.Gender, Category: "varsity"}
	return model.Entry{
		Result:  model.Result{ID: id, AthleteID: athleteID, RaceID: race.ID, TimeSeconds: raw},
		Athlete: a,
		Race:    race,
		Meet:    m.meet,
		Course:  m.course,
		School:  model.School{ID: "s1", Name: "Central"},
	}
}

func season() []model.Entry {
	return []model.Entry{
		entry("r1", "a1", "m1", 1000),
		entry("r2", "a1", "m2", 1030), // 978.5 equivalent
		entry("r3", "a1", "m3", 960),  // unrated
		entry("r4", "a1", "m4", 990),
		entry("r5", "a2", "m1", 1005),
		entry("r9", "a3", "m1", 950), // implies grade 7
		entry("g1", "g1", "m1", 900),
	}
}

func ids(marks []types.LeaderboardEntry) []string {
	out := make([]string, len(marks))
	for i, m := range marks {
		out[i] = m.Mark.ResultID
	}
	return out
}

func TestAthleteBests(t *testing.T) {
	Convey("Given one athlete's results over rated and unrated courses", t, func() {
		all := season()
		rs, err := records.AthleteBests(all[:4])
		So(err, ShouldBeNil)

		Convey("Then each course keeps its fastest raw time", func() {
			So(rs.AthleteID, ShouldEqual, "a1")
			So(rs.CoursePRs, ShouldHaveLength, 3)
			So(rs.CoursePRs[0].ResultID, ShouldEqual, "r4")
			So(rs.CoursePRs[1].ResultID, ShouldEqual, "r2")
			So(rs.CoursePRs[2].ResultID, ShouldEqual, "r3")
			So(rs.CoursePRs[2].NormalizedSeconds, ShouldBeNil)
		})

		Convey("Then the all-course best compares equivalent times on rated courses only", func() {
			So(rs.AllCourseBest, ShouldNotBeNil)
			So(rs.AllCourseBest.ResultID, ShouldEqual, "r2")
			So(*rs.AllCourseBest.NormalizedSeconds, ShouldAlmostEqual, 978.5, 1e-9)
			So(rs.Skipped, ShouldHaveLength, 1)
			So(rs.Skipped[0].ResultID, ShouldEqual, "r3")
		})
	})

	Convey("Given only unrated results", t, func() {
		rs, err := records.AthleteBests([]model.Entry{entry("r3", "a1", "m3", 960)})
		So(err, ShouldBeNil)
		So(rs.CoursePRs, ShouldHaveLength, 1)
		So(rs.AllCourseBest, ShouldBeNil)
	})

	Convey("Given no results", t, func() {
		_, err := records.AthleteBests(nil)
		So(errors.Is(err, records.ErrInsufficientData), ShouldBeTrue)
		So(errors.Is(err, model.ErrInsufficientData), ShouldBeTrue)
	})

	Convey("Given the same race twice", t, func() {
		_, err := records.AthleteBests([]model.Entry{entry("r1", "a1", "m1", 1000), entry("r1b", "a1", "m1", 1001)})
		So(errors.Is(err, dedupe.ErrDuplicateResult), ShouldBeTrue)
	})
}

func TestSchoolRecords(t *testing.T) {
	Convey("Given a school's season", t, func() {
		rs, err := records.SchoolRecords(season(), model.GenderMale)
		So(err, ShouldBeNil)

		Convey("Then only boys are considered", func() {
			So(rs.SchoolID, ShouldEqual, "s1")
			So(rs.Gender, ShouldEqual, model.GenderMale)
			for _, c := range rs.Courses {
				So(c.Overall.AthleteID, ShouldNotEqual, "g1")
			}
		})

		Convey("Then each course keeps one overall record", func() {
			So(rs.Courses, ShouldHaveLength, 3)
			So(rs.Courses[0].CourseID, ShouldEqual, "c1")
			So(rs.Courses[0].Overall.ResultID, ShouldEqual, "r9")
			So(rs.Courses[0].Overall.MeetName, ShouldEqual, "Opener")
			So(rs.Courses[2].Overall.ResultID, ShouldEqual, "r3")
		})

		Convey("Then grade records keep the fastest mark per grade and drop out-of-range grades", func() {
			byGrade := rs.Courses[0].ByGrade
			So(byGrade, ShouldHaveLength, 2)
			So(byGrade[0].Grade, ShouldEqual, 11)
			So(byGrade[0].Mark.ResultID, ShouldEqual, "r1")
			So(byGrade[1].Grade, ShouldEqual, 12)
			So(byGrade[1].Mark.ResultID, ShouldEqual, "r4")
		})
	})

	Convey("Given a gender with no results", t, func() {
		_, err := records.SchoolRecords(season()[:3], model.GenderFemale)
		So(errors.Is(err, records.ErrInsufficientData), ShouldBeTrue)
	})

	Convey("Given a non-canonical gender", t, func() {
		_, err := records.SchoolRecords(season(), model.Gender("Boys"))
		So(errors.Is(err, model.ErrInvalidGender), ShouldBeTrue)
	})
}

func TestTopN(t *testing.T) {
	Convey("Given the boys' pool", t, func() {
		pool := season()[:6]

		Convey("When every entry may appear", func() {
			top, skipped, err := records.TopN(pool, 3, records.ModeAllEntries)
			So(err, ShouldBeNil)

			Convey("Then the list is ordered by equivalent time", func() {
				So(ids(top), ShouldResemble, []string{"r9", "r2", "r4"})
				So(top[0].Rank, ShouldEqual, 1)
				So(top[2].Rank, ShouldEqual, 3)
				So(skipped, ShouldHaveLength, 1)
			})
		})

		Convey("When only each athlete's best counts", func() {
			top, _, err := records.TopN(pool, 3, records.ModeBestPerAthlete)
			So(err, ShouldBeNil)
			So(ids(top), ShouldResemble, []string{"r9", "r2", "r5"})
		})

		Convey("When N exceeds the pool", func() {
			top, _, err := records.TopN(pool, 50, records.ModeAllEntries)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 5)
		})

		Convey("When the same race appears twice for one athlete", func() {
			dup := append(season(), entry("r1b", "a1", "m1", 1200))
			top, _, err := records.TopN(dup, 10, records.ModeAllEntries)
			So(errors.Is(err, dedupe.ErrDuplicateResult), ShouldBeTrue)
			So(top, ShouldBeNil)
			var de *dedupe.DuplicateResultError
			So(errors.As(err, &de), ShouldBeTrue)
			So(de.FirstResultID, ShouldEqual, "r1")
			So(de.SecondResultID, ShouldEqual, "r1b")
		})

		Convey("When the mode or limit is missing", func() {
			_, _, err := records.TopN(pool, 3, records.Mode(0))
			So(errors.Is(err, records.ErrInvalidMode), ShouldBeTrue)
			_, _, err = records.TopN(pool, 0, records.ModeAllEntries)
			So(errors.Is(err, records.ErrInvalidLimit), ShouldBeTrue)
		})
	})

	Convey("Given mode names", t, func() {
		m, err := records.ParseMode("best-per-athlete")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, records.ModeBestPerAthlete)
		m, err = records.ParseMode("all")
		So(err, ShouldBeNil)
		So(m.String(), ShouldEqual, "all")
		_, err = records.ParseMode("")
		So(errors.Is(err, records.ErrInvalidMode), ShouldBeTrue)
	})
}

func teamRace(raceID string, date time.Time, runners int, first float64) []model.Entry {
	out := make([]model.Entry, runners)
	for i := range out {
		id := fmt.Sprintf("%s-%d", raceID, i)
		out[i] = model.Entry{
			Result:  model.Result{ID: id, AthleteID: fmt.Sprintf("a%d", i), RaceID: raceID, TimeSeconds: first + float64(i)*10},
			Athlete: model.Athlete{ID: fmt.Sprintf("a%d", i), Gender: model.GenderMale, SchoolID: "s1"},
			Race:    model.Race{ID: raceID, Gender: model.GenderMale},
			Meet:    model.Meet{ID: "meet-" + raceID, Date: date},
			Course:  flat,
			School:  model.School{ID: "s1"},
		}
	}
	return out
}

func TestTeamBests(t *testing.T) {
	Convey("Given three races on one course", t, func() {
		d := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
		var pool []model.Entry
		pool = append(pool, teamRace("rA", d, 6, 1000)...)
		pool = append(pool, teamRace("rB", d.AddDate(0, 0, 7), 5, 990)...)
		pool = append(pool, teamRace("rC", d.AddDate(0, 0, 14), 4, 900)...)

		Convey("Then races with five finishers are ranked by the sum of the five fastest", func() {
			perfs, err := records.TeamBests(pool, 10)
			So(err, ShouldBeNil)
			So(perfs, ShouldHaveLength, 2)
			So(perfs[0].RaceID, ShouldEqual, "rB")
			So(perfs[0].TotalSeconds, ShouldAlmostEqual, 5050, 1e-9)
			So(perfs[1].RaceID, ShouldEqual, "rA")
			So(perfs[1].TotalSeconds, ShouldAlmostEqual, 5100, 1e-9)
			So(perfs[1].Runners, ShouldHaveLength, 5)
			So(perfs[1].Rank, ShouldEqual, 2)
		})

		Convey("Then one athlete listed five times in a race is not a team", func() {
			solo := teamRace("rD", d, 1, 950)
			for i := 1; i < 5; i++ {
				e := solo[0]
				e.Result.ID = fmt.Sprintf("rD-dup-%d", i)
				solo = append(solo, e)
			}
			perfs, err := records.TeamBests(solo, 10)
			So(errors.Is(err, dedupe.ErrDuplicateResult), ShouldBeTrue)
			So(perfs, ShouldBeNil)
		})

		Convey("Then N trims the list", func() {
			perfs, err := records.TeamBests(pool, 1)
			So(err, ShouldBeNil)
			So(perfs, ShouldHaveLength, 1)
			So(perfs[0].RaceID, ShouldEqual, "rB")
		})
	})
}

func TestCompute(t *testing.T) {
	Convey("Given a school's season", t, func() {
		pool := season()
		before := append([]model.Entry(nil), pool...)
		subject := types.Subject{Kind: types.SubjectSchool, ID: "s1", Gender: model.GenderMale}

		Convey("When records are computed twice", func() {
			first, err1 := records.Compute(pool, subject)
			second, err2 := records.Compute(pool, subject)

			Convey("Then both runs agree and the input is untouched", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
				So(pool, ShouldResemble, before)
				So(first.School, ShouldNotBeNil)
				So(first.Athlete, ShouldBeNil)
				So(ids(first.Top), ShouldResemble, []string{"r9", "r2", "r5"})
			})
		})

		Convey("When the subject is an athlete", func() {
			rs, err := records.Compute(pool, types.Subject{Kind: types.SubjectAthlete, ID: "a1"}, records.WithTopLimit(2))
			So(err, ShouldBeNil)
			So(rs.Athlete, ShouldNotBeNil)
			So(rs.Athlete.AllCourseBest.ResultID, ShouldEqual, "r2")
			So(ids(rs.Top), ShouldResemble, []string{"r2", "r4"})
		})

		Convey("When the subject is malformed", func() {
			_, err := records.Compute(pool, types.Subject{Kind: types.SubjectSchool, ID: "s1"})
			So(errors.Is(err, model.ErrInvalidGender), ShouldBeTrue)
			_, err = records.Compute(pool, types.Subject{Kind: "team", ID: "s1"})
			So(errors.Is(err, records.ErrInvalidSubject), ShouldBeTrue)
			_, err = records.Compute(pool, types.Subject{Kind: types.SubjectAthlete, ID: "nobody"})
			So(errors.Is(err, records.ErrInsufficientData), ShouldBeTrue)
		})
	})
}
