package normalize_test

import (
	"errors"
	"testing"

	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(f float64) *float64 { return &f }

func TestNormalize(t *testing.T) {
	Convey("Given courses with and without a normalization rating", t, func() {
		rated := model.Course{ID: "c1", NormalizationRating: ptr(0.9625), DifficultyMultiplier: ptr(1.4)}
		unrated := model.Course{ID: "c2", DifficultyMultiplier: ptr(1.08)}

		Convey("When normalizing on a rated course", func() {
			Convey("Then the result is time * rating for every sample", func() {
				for _, raw := range []float64{0.5, 960, 1002.37, 1325.8} {
					got, err := normalize.Normalize(raw, rated)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, raw*0.9625)
				}
			})

			Convey("Then the difficulty multiplier is never used", func() {
				got, err := normalize.Normalize(1000, rated)
				So(err, ShouldBeNil)
				So(got, ShouldNotEqual, 1000*1.4)
			})
		})

		Convey("When normalizing on an unrated course", func() {
			_, err := normalize.Normalize(1000, unrated)

			Convey("Then it fails with MissingRatingError naming the course", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, normalize.ErrMissingRating), ShouldBeTrue)
				var mre *normalize.MissingRatingError
				So(errors.As(err, &mre), ShouldBeTrue)
				So(mre.CourseID, ShouldEqual, "c2")
				So(err.Error(), ShouldContainSubstring, "c2")
			})
		})

		Convey("When normalizing a joined entry", func() {
			e := model.Entry{Result: model.Result{TimeSeconds: 1000}, Course: rated}
			got, err := normalize.Entry(e)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 962.5)

			e.Course = unrated
			_, err = normalize.Entry(e)
			So(errors.Is(err, normalize.ErrMissingRating), ShouldBeTrue)
		})
	})
}

func TestDifficulty(t *testing.T) {
	Convey("Given difficulty multipliers", t, func() {
		cases := []struct {
			m    *float64
			want string
		}{
			{nil, normalize.LabelUnknown},
			{ptr(1.0), normalize.LabelFlat},
			{ptr(1.05), normalize.LabelModerate},
			{ptr(1.09), normalize.LabelHard},
			{ptr(1.2), normalize.LabelVeryHard},
		}
		Convey("Then each maps to a descriptive label", func() {
			for _, c := range cases {
				So(normalize.Difficulty(model.Course{DifficultyMultiplier: c.m}), ShouldEqual, c.want)
			}
		})
	})
}

func TestFormatTime(t *testing.T) {
	Convey("Given times in seconds", t, func() {
		So(normalize.FormatTime(1002.37), ShouldEqual, "16:42.4")
		So(normalize.FormatTime(59.96), ShouldEqual, "1:00.0")
		So(normalize.FormatTime(-1), ShouldEqual, "-")
	})
}

func TestParseClock(t *testing.T) {
	Convey("Given finish times in the formats seen in meet results", t, func() {
		cases := map[string]float64{
			"1002.4":    1002.4,
			"16:42.4":   1002.4,
			" 5:00 ":    300,
			"1:02:03.5": 3723.5,
		}

		Convey("Then each is read as seconds", func() {
			for in, want := range cases {
				got, err := normalize.ParseClock(in)
				So(err, ShouldBeNil)
				So(got, ShouldAlmostEqual, want, 1e-9)
			}
		})

		Convey("Then FormatTime reads back the same clock", func() {
			got, err := normalize.ParseClock(normalize.FormatTime(1002.4))
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, 1002.4, 1e-9)
		})

		Convey("Then malformed and non-positive times are rejected", func() {
			for _, in := range []string{"", "abc", "16:75", "1:2:3:4", "0", "-5", "0:00"} {
				_, err := normalize.ParseClock(in)
				So(errors.Is(err, normalize.ErrBadClock), ShouldBeTrue)
			}
		})
	})
}
