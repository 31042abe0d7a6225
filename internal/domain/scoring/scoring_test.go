package scoring_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/scoring"
	"github.com/okian/harrier/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func rated(r float64) model.Course {
	return model.Course{ID: "course1", Name: "Hillside", DistanceMeters: 5000, NormalizationRating: &r}
}

// field builds a finish order from school letters: "ABA" means an A runner
// wins, a B runner is second and another A runner is third.
func field(order string) []model.Entry {
	course := rated(1.0)
	race := model.Race{ID: "race1", MeetID: "m1", Gender: model.GenderMale, Category: "varsity"}
	counts := map[rune]int{}
	entries := make([]model.Entry, 0, len(order))
	for i, s := range order {
		counts[s]++
		school := string(s)
		athlete := fmt.Sprintf("%s%d", school, counts[s])
		entries = append(entries, model.Entry{
			Result: model.Result{
				ID:          fmt.Sprintf("r%02d", i+1),
				AthleteID:   athlete,
				RaceID:      race.ID,
				TimeSeconds: 1000 + float64(i)*5,
			},
			Athlete: model.Athlete{ID: athlete, FirstName: school, LastName: athlete, Gender: model.GenderMale, SchoolID: school},
			Race:    race,
			Course:  course,
			School:  model.School{ID: school, Name: "School " + school},
		})
	}
	return entries
}

func standing(rs types.RaceScoring, school string) *types.TeamStanding {
	for i := range rs.Standings {
		if rs.Standings[i].SchoolID == school {
			return &rs.Standings[i]
		}
	}
	return nil
}

func TestScoreRace(t *testing.T) {
	Convey("Given two complete teams and one incomplete team", t, func() {
		// C runners never qualify, so A and B score as if C were absent.
		rs, err := scoring.ScoreRace(field("ACBABABCABAB"))
		So(err, ShouldBeNil)

		Convey("Then only schools with five finishers are ranked", func() {
			So(rs.RaceID, ShouldEqual, "race1")
			So(rs.Gender, ShouldEqual, model.GenderMale)
			So(rs.Standings, ShouldHaveLength, 2)
			So(rs.Incomplete, ShouldHaveLength, 1)
			So(rs.Incomplete[0].SchoolID, ShouldEqual, "C")
			So(rs.Incomplete[0].Runners, ShouldHaveLength, 2)
			So(rs.Unscored, ShouldBeEmpty)
		})

		Convey("Then every finisher gets a distinct overall place", func() {
			So(rs.Overall, ShouldHaveLength, 12)
			for i, p := range rs.Overall {
				So(p.OverallPlace, ShouldEqual, i+1)
			}
		})

		Convey("Then non-qualifiers have no scoring place", func() {
			So(rs.Overall[1].SchoolID, ShouldEqual, "C")
			So(rs.Overall[1].ScoringPlace, ShouldBeNil)
			So(rs.Overall[1].Role, ShouldEqual, types.RoleIncomplete)
			So(rs.Overall[1].TeamPlace, ShouldEqual, 0)
			So(*rs.Overall[2].ScoringPlace, ShouldEqual, 2)
		})

		Convey("Then each score is the sum of its counting runners' scoring places", func() {
			a, b := standing(rs, "A"), standing(rs, "B")
			So(a.Score, ShouldEqual, 1+3+5+7+9)
			So(b.Score, ShouldEqual, 2+4+6+8+10)
			for _, st := range rs.Standings {
				sum := 0
				for _, r := range st.Runners[:5] {
					So(r.Role, ShouldEqual, types.RoleCounting)
					sum += *r.ScoringPlace
				}
				So(st.Score, ShouldEqual, sum)
			}
		})

		Convey("Then standings ascend by score with distinct ranks", func() {
			So(rs.Standings[0].SchoolID, ShouldEqual, "A")
			So(rs.Standings[0].Rank, ShouldEqual, 1)
			So(rs.Standings[1].Rank, ShouldEqual, 2)
			So(rs.Standings[0].Score, ShouldBeLessThan, rs.Standings[1].Score)
			So(rs.Standings[0].TieBreak, ShouldBeEmpty)
		})
	})

	Convey("Given a team with more than seven finishers", t, func() {
		rs, err := scoring.ScoreRace(field("AAAAAAAABBBBB"))
		So(err, ShouldBeNil)
		a := standing(rs, "A")

		Convey("Then roles follow team place", func() {
			So(a.Runners[4].Role, ShouldEqual, types.RoleCounting)
			So(a.Runners[5].Role, ShouldEqual, types.RoleDisplacer)
			So(a.Runners[6].Role, ShouldEqual, types.RoleDisplacer)
			So(a.Runners[7].Role, ShouldEqual, types.RoleNonCounting)
			So(a.Runners[7].ScoringPlace, ShouldBeNil)
			So(a.Runners[7].TeamPlace, ShouldEqual, 8)
		})

		Convey("Then displacers push back the other team and the eighth runner does not", func() {
			So(a.Score, ShouldEqual, 15)
			So(standing(rs, "B").Score, ShouldEqual, 8+9+10+11+12)
		})
	})

	Convey("Given no school with enough finishers", t, func() {
		rs, err := scoring.ScoreRace(field("ABCABC"))

		Convey("Then the race is still valid with zero standings", func() {
			So(err, ShouldBeNil)
			So(rs.Standings, ShouldBeEmpty)
			So(rs.Incomplete, ShouldHaveLength, 3)
			for _, p := range rs.Overall {
				So(p.ScoringPlace, ShouldBeNil)
			}
		})
	})

	Convey("Given an empty race", t, func() {
		rs, err := scoring.ScoreRace(nil)
		So(err, ShouldBeNil)
		So(rs.Overall, ShouldBeEmpty)
		So(rs.Standings, ShouldNotBeNil)
	})
}

func TestScoreRaceTieBreaks(t *testing.T) {
	Convey("Given equal scores and both teams with a sixth runner", t, func() {
		// A counts 1,2,5,9,11 and B counts 3,4,6,7,8; B's sixth is 10th.
		rs, err := scoring.ScoreRace(field("AABBABBBABAA"))
		So(err, ShouldBeNil)

		Convey("Then the better sixth runner wins", func() {
			So(rs.Standings[0].Score, ShouldEqual, 28)
			So(rs.Standings[1].Score, ShouldEqual, 28)
			So(rs.Standings[0].SchoolID, ShouldEqual, "B")
			So(rs.Standings[0].TieBreak, ShouldEqual, scoring.TieBreakDisplacer(1))
			So(rs.Standings[1].TieBreak, ShouldEqual, scoring.TieBreakDisplacer(1))
			So(rs.Standings[1].Rank, ShouldEqual, 2)
		})
	})

	Convey("Given equal scores and only one team with a sixth runner", t, func() {
		rs, err := scoring.ScoreRace(field("AABBABBBABA"))
		So(err, ShouldBeNil)

		Convey("Then the team without one loses", func() {
			So(standing(rs, "A").Score, ShouldEqual, standing(rs, "B").Score)
			So(rs.Standings[0].SchoolID, ShouldEqual, "B")
		})
	})

	Convey("Given equal scores and no displacers at all", t, func() {
		// A counts 1,4,8,9,13 and B counts 2,5,6,10,12.
		rs, err := scoring.ScoreRace(field("ABCABBCAABCBACC"))
		So(err, ShouldBeNil)

		Convey("Then school id decides", func() {
			So(rs.Standings[0].SchoolID, ShouldEqual, "A")
			So(rs.Standings[0].Score, ShouldEqual, 35)
			So(rs.Standings[1].SchoolID, ShouldEqual, "B")
			So(rs.Standings[1].Score, ShouldEqual, 35)
			So(rs.Standings[1].TieBreak, ShouldEqual, scoring.TieBreakSchoolID)
			So(rs.Standings[2].SchoolID, ShouldEqual, "C")
			So(rs.Standings[2].TieBreak, ShouldBeEmpty)
		})
	})

	Convey("Given two runners with identical times", t, func() {
		entries := field("AB")
		entries[1].Result.TimeSeconds = entries[0].Result.TimeSeconds
		entries[0].Result.ID, entries[1].Result.ID = "r9", "r1"
		rs, err := scoring.ScoreRace(entries)
		So(err, ShouldBeNil)

		Convey("Then the lower result id is placed first", func() {
			So(rs.Overall[0].ResultID, ShouldEqual, "r1")
			So(rs.Overall[0].OverallPlace, ShouldEqual, 1)
			So(rs.Overall[1].OverallPlace, ShouldEqual, 2)
		})
	})
}

func TestScoreRaceOptions(t *testing.T) {
	Convey("Given a four-score format without displacers", t, func() {
		s := scoring.New(scoring.WithScorers(4), scoring.WithDisplacers(0))
		So(s.Scorers(), ShouldEqual, 4)
		So(s.Displacers(), ShouldEqual, 0)

		rs, err := s.ScoreRace(field("AAAAABBBB"))
		So(err, ShouldBeNil)

		Convey("Then four finishers make a team and the fifth does not displace", func() {
			So(rs.Standings, ShouldHaveLength, 2)
			So(standing(rs, "A").Score, ShouldEqual, 10)
			So(standing(rs, "B").Score, ShouldEqual, 5+6+7+8)
			So(standing(rs, "A").Runners[4].Role, ShouldEqual, types.RoleNonCounting)
		})
	})

	Convey("Given invalid option values", t, func() {
		s := scoring.New(scoring.WithScorers(0), scoring.WithDisplacers(-1))
		So(s.Scorers(), ShouldEqual, 5)
		So(s.Displacers(), ShouldEqual, 2)
	})
}

func TestScoreRaceRejectsBadInput(t *testing.T) {
	Convey("Given a result on an unrated course", t, func() {
		entries := field("AAAAAB")
		entries[5].Course = model.Course{ID: "unrated"}
		rs, err := scoring.ScoreRace(entries)
		So(err, ShouldBeNil)

		Convey("Then it is reported unscored and not placed", func() {
			So(rs.Overall, ShouldHaveLength, 5)
			So(rs.Unscored, ShouldHaveLength, 1)
			So(rs.Unscored[0].CourseID, ShouldEqual, "unrated")
			So(rs.Unscored[0].Reason, ShouldContainSubstring, normalize.ErrMissingRating.Error())
		})
	})

	Convey("Given the same athlete twice in one race", t, func() {
		entries := field("AB")
		entries = append(entries, entries[0])
		entries[2].Result.ID = "r99"
		_, err := scoring.ScoreRace(entries)

		Convey("Then scoring fails with a duplicate error", func() {
			So(errors.Is(err, dedupe.ErrDuplicateResult), ShouldBeTrue)
		})
	})

	Convey("Given entries from two races", t, func() {
		entries := field("AB")
		entries[1].Result.RaceID = "race2"
		_, err := scoring.ScoreRace(entries)

		Convey("Then scoring fails", func() {
			So(errors.Is(err, scoring.ErrMixedRaces), ShouldBeTrue)
		})
	})
}
