package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/harrier/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGradeInference(t *testing.T) {
	Convey("Given an athlete graduating in 2026", t, func() {
		const gradYear = 2026

		Convey("When the result is dated in November 2024", func() {
			d := date(2024, time.November, 4)

			Convey("Then the athletic year ends in 2025 and the grade is 11", func() {
				So(model.SchoolYearEnding(d), ShouldEqual, 2025)
				So(model.GradeAt(gradYear, d), ShouldEqual, 11)
			})
		})

		Convey("When the result is dated in March 2024", func() {
			d := date(2024, time.March, 1)

			Convey("Then the athletic year ends in 2024 and the grade is 10", func() {
				So(model.SchoolYearEnding(d), ShouldEqual, 2024)
				So(model.GradeAt(gradYear, d), ShouldEqual, 10)
			})
		})

		Convey("When the result falls on the July and June boundaries", func() {
			So(model.GradeAt(gradYear, date(2025, time.July, 1)), ShouldEqual, 12)
			So(model.GradeAt(gradYear, date(2025, time.June, 30)), ShouldEqual, 11)
		})

		Convey("When the implied grade is outside high school", func() {
			g := model.GradeAt(gradYear, date(2021, time.September, 10))

			Convey("Then it is not a valid record grade", func() {
				So(g, ShouldEqual, 8)
				So(model.ValidGrade(g), ShouldBeFalse)
				So(model.ValidGrade(9), ShouldBeTrue)
				So(model.ValidGrade(12), ShouldBeTrue)
				So(model.ValidGrade(13), ShouldBeFalse)
			})
		})
	})
}

func TestParseGender(t *testing.T) {
	Convey("Given imported gender spellings", t, func() {
		cases := map[string]model.Gender{
			"M":      model.GenderMale,
			"Boys":   model.GenderMale,
			" men ":  model.GenderMale,
			"F":      model.GenderFemale,
			"Girls":  model.GenderFemale,
			"female": model.GenderFemale,
		}

		Convey("Then each maps to the canonical tag", func() {
			for in, want := range cases {
				got, err := model.ParseGender(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
				So(got.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then unknown spellings are rejected", func() {
			_, err := model.ParseGender("X")
			So(errors.Is(err, model.ErrInvalidGender), ShouldBeTrue)
			So(model.Gender("Boys").Valid(), ShouldBeFalse)
		})

		Convey("Then labels separate boys and girls", func() {
			So(model.GenderMale.Label(), ShouldEqual, "boys")
			So(model.GenderFemale.Label(), ShouldEqual, "girls")
		})
	})
}

func TestResultValidate(t *testing.T) {
	Convey("Given results with various field values", t, func() {
		valid := model.Result{ID: "r1", AthleteID: "a1", RaceID: "race1", TimeSeconds: 1002.4}

		Convey("When all fields are set", func() {
			So(valid.Validate(), ShouldBeNil)
			So(valid.Key(), ShouldEqual, "a1|race1")
		})

		Convey("When the time is zero or negative", func() {
			for _, ts := range []float64{0, -3} {
				r := valid
				r.TimeSeconds = ts
				err := r.Validate()
				So(errors.Is(err, model.ErrInvalidResult), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "time_seconds")
			}
		})

		Convey("When the athlete or race is missing", func() {
			r := valid
			r.AthleteID = " "
			So(r.Validate().Error(), ShouldContainSubstring, "athlete_id")

			r = valid
			r.RaceID = ""
			So(r.Validate().Error(), ShouldContainSubstring, "race_id")
		})
	})
}

func TestEntry(t *testing.T) {
	Convey("Given a joined entry", t, func() {
		e := model.Entry{
			Result:  model.Result{ID: "r1", AthleteID: "a1", RaceID: "race1", TimeSeconds: 1000},
			Athlete: model.Athlete{ID: "a1", FirstName: "Ada", LastName: "Lane", Gender: model.GenderFemale, GraduationYear: 2026},
			Meet:    model.Meet{ID: "m1", Date: date(2024, time.November, 4)},
		}

		Convey("Then it exposes key, date, grade and gender", func() {
			So(e.Key(), ShouldEqual, "a1|race1")
			So(e.Date(), ShouldEqual, date(2024, time.November, 4))
			So(e.Grade(), ShouldEqual, 11)
			So(e.Gender(), ShouldEqual, model.GenderFemale)
			So(e.Athlete.FullName(), ShouldEqual, "Ada Lane")
		})
	})
}
