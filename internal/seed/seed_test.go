package seed

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harrier/internal/adapters/http/api"
	"github.com/okian/harrier/internal/adapters/repository"
	service "github.com/okian/harrier/internal/app"
	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func smallConfig() *Config {
	return &Config{
		Schools:           3,
		AthletesPerSchool: 12,
		Meets:             4,
		RandSeed:          7,
		Workers:           4,
		Timeout:           5 * time.Second,
		Settle:            10 * time.Second,
	}
}

func place(n int) *int { return &n }

func TestGenerate(t *testing.T) {
	Convey("Given a small league", t, func() {
		cfg := smallConfig()
		s := Generate(cfg)

		Convey("The same seed gives the same season", func() {
			So(Generate(cfg), ShouldResemble, s)
		})

		Convey("Another seed gives other times", func() {
			cfg.RandSeed = 8
			So(Generate(cfg).Results, ShouldNotResemble, s.Results)
		})

		Convey("The catalog has the requested shape", func() {
			So(len(s.Schools), ShouldEqual, 3)
			So(len(s.Athletes), ShouldEqual, 36)
			So(len(s.Meets), ShouldEqual, 4)
			So(len(s.Races), ShouldEqual, 8)
			So(s.Meets[3].Type, ShouldEqual, "championship")
			So(s.Meets[0].Date, ShouldEqual, "2024-08-31")
			So(s.Meets[1].Date, ShouldEqual, "2024-09-07")
		})

		Convey("Only the last course is unrated", func() {
			So(len(s.Courses), ShouldEqual, 4)
			for _, c := range s.Courses[:3] {
				So(c.NormalizationRating, ShouldNotBeNil)
			}
			So(s.Courses[3].NormalizationRating, ShouldBeNil)
		})

		Convey("Every result belongs to a race of the athlete's gender", func() {
			gender := map[string]string{}
			for _, a := range s.Athletes {
				gender[a.ID] = a.Gender
			}
			raceGender := map[string]string{}
			for _, r := range s.Races {
				raceGender[r.ID] = r.Gender
			}
			ids := map[string]bool{}
			for _, r := range s.Results {
				So(raceGender[r.RaceID], ShouldEqual, gender[r.AthleteID])
				So(r.TimeSeconds, ShouldBeGreaterThan, 0)
				So(ids[r.ID], ShouldBeFalse)
				ids[r.ID] = true
			}
		})
	})
}

func TestCheckScoring(t *testing.T) {
	Convey("Given a consistent two-team race", t, func() {
		runner := func(id, school string, overall int, sp *int, role types.Role) types.RunnerPlacement {
			return types.RunnerPlacement{
				ResultID:          id,
				SchoolID:          school,
				OverallPlace:      overall,
				NormalizedSeconds: float64(1000 + overall),
				ScoringPlace:      sp,
				Role:              role,
			}
		}
		a1 := runner("a1", "a", 1, place(1), types.RoleCounting)
		x1 := runner("x1", "x", 2, nil, types.RoleIncomplete)
		b1 := runner("b1", "b", 3, place(2), types.RoleCounting)
		a2 := runner("a2", "a", 4, place(3), types.RoleDisplacer)
		b2 := runner("b2", "b", 5, place(4), types.RoleDisplacer)
		sc := types.RaceScoring{
			RaceID:  "r",
			Overall: []types.RunnerPlacement{a1, x1, b1, a2, b2},
			Standings: []types.TeamStanding{
				{Rank: 1, SchoolID: "a", Score: 1, Runners: []types.RunnerPlacement{a1, a2}},
				{Rank: 2, SchoolID: "b", Score: 2, Runners: []types.RunnerPlacement{b1, b2}},
			},
			Incomplete: []types.IncompleteTeam{{SchoolID: "x", Runners: []types.RunnerPlacement{x1}}},
		}

		Convey("No problems are reported", func() {
			So(CheckScoring(sc), ShouldBeEmpty)
		})

		Convey("A wrong team score is reported", func() {
			sc.Standings[1].Score = 5
			So(CheckScoring(sc), ShouldHaveLength, 1)
		})

		Convey("A scoring place on a non-qualifier is reported", func() {
			sc.Overall[1].ScoringPlace = place(2)
			So(len(CheckScoring(sc)), ShouldBeGreaterThan, 0)
		})

		Convey("Out-of-order standings are reported", func() {
			sc.Standings[0], sc.Standings[1] = sc.Standings[1], sc.Standings[0]
			So(len(CheckScoring(sc)), ShouldBeGreaterThanOrEqualTo, 2)
		})
	})
}

func TestCheckLeaderboard(t *testing.T) {
	Convey("Given a board with a tie", t, func() {
		rows := []types.Entry{
			{Rank: 1, AthleteID: "a", NormalizedSeconds: 1000},
			{Rank: 2, AthleteID: "b", NormalizedSeconds: 1030},
			{Rank: 2, AthleteID: "c", NormalizedSeconds: 1000 * 1.03},
			{Rank: 4, AthleteID: "d", NormalizedSeconds: 1040},
		}

		Convey("Competition ranking passes", func() {
			So(CheckLeaderboard(rows), ShouldBeEmpty)
		})

		Convey("Dense ranking after a tie is reported", func() {
			rows[3].Rank = 3
			So(CheckLeaderboard(rows), ShouldHaveLength, 1)
		})

		Convey("A repeated athlete is reported", func() {
			rows[3].AthleteID = "a"
			So(CheckLeaderboard(rows), ShouldHaveLength, 1)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithStore(repository.NewMemStore()),
			service.WithWorkerCount(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		r := mux.NewRouter()
		api.NewServer(svc).Register(r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		cfg := smallConfig()
		cfg.BaseURL = srv.URL

		Convey("A seeded season passes verification", func() {
			stats, err := Run(ctx, cfg)
			So(err, ShouldBeNil)
			So(stats.ResultsGenerated, ShouldBeGreaterThan, 0)
			So(stats.ResultsAccepted, ShouldEqual, stats.ResultsGenerated)
			So(stats.ResultsRejected, ShouldEqual, 0)
			So(stats.RacesChecked, ShouldEqual, 8)
			So(stats.Violations, ShouldEqual, 0)

			Convey("Running it again rejects every result as a duplicate", func() {
				stats, err := Run(ctx, cfg)
				So(err, ShouldBeNil)
				So(stats.ResultsAccepted, ShouldEqual, 0)
				So(stats.ResultsRejected, ShouldEqual, stats.ResultsGenerated)
			})
		})

		Convey("An unreachable server fails the health check", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := Run(ctx, cfg)
			So(err, ShouldNotBeNil)
		})
	})
}
