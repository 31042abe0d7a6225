package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harrier/internal/adapters/http/api"
	service "github.com/okian/harrier/internal/app"
	"github.com/okian/harrier/internal/domain/types"
	"github.com/okian/harrier/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type client struct {
	router *mux.Router
}

func (c client) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

// postCatalog creates one rated course, a meet and race, two schools and
// five boys per school.
func postCatalog(c client) {
	So(c.do("POST", "/courses", `{"id":"flat","name":"Flat 5K","distance_meters":5000,"normalization_rating":1.0}`).Code, ShouldEqual, http.StatusOK)
	So(c.do("POST", "/meets", `{"id":"opener","name":"Opener","date":"2024-09-07","course_id":"flat"}`).Code, ShouldEqual, http.StatusOK)
	So(c.do("POST", "/races", `{"id":"opener-b","meet_id":"opener","gender":"Boys","category":"varsity"}`).Code, ShouldEqual, http.StatusOK)
	for _, school := range []string{"north", "south"} {
		So(c.do("POST", "/schools", fmt.Sprintf(`{"id":%q,"name":%q}`, school, school)).Code, ShouldEqual, http.StatusOK)
		for k := 1; k <= 5; k++ {
			body := fmt.Sprintf(`{"id":"%s%d","first_name":%q,"last_name":"%d","gender":"M","graduation_year":2026,"school_id":%q}`, school[:1], k, school, k, school)
			So(c.do("POST", "/athletes", body).Code, ShouldEqual, http.StatusOK)
		}
	}
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithMaxLimit(50))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		router := mux.NewRouter()
		api.NewServer(svc).Register(router)
		c := client{router: router}

		Convey("Health, stats and metrics answer", func() {
			w := c.do("GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)

			So(c.do("GET", "/stats", "").Code, ShouldEqual, http.StatusOK)

			w = c.do("GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "harrier_")
		})

		Convey("Unknown routes are 404 and wrong methods 405", func() {
			So(c.do("GET", "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
			So(c.do("GET", "/results", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Catalog writes validate their input", func() {
			w := c.do("POST", "/races", `{"id":"r","meet_id":"m","gender":"X"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")

			w = c.do("POST", "/meets", `{"id":"m","name":"M","date":"09/07/2024","course_id":"flat"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = c.do("POST", "/courses", `{"id":"c","name":"C","distance_meters":5000,"unknown":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = c.do("POST", "/meets", `{"id":"m","name":"M","date":"2024-09-07","course_id":"ghost"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("With a catalog and one race of results", func() {
			postCatalog(c)
			for k := 1; k <= 5; k++ {
				n := fmt.Sprintf(`{"id":"o-n%d","athlete_id":"n%d","race_id":"opener-b","time":"16:%02d.0"}`, k, k, 40+k*2)
				s := fmt.Sprintf(`{"id":"o-s%d","athlete_id":"s%d","race_id":"opener-b","time_seconds":%d}`, k, k, 1001+k*2)
				So(c.do("POST", "/results", n).Code, ShouldEqual, http.StatusAccepted)
				So(c.do("POST", "/results", s).Code, ShouldEqual, http.StatusAccepted)
			}

			Convey("A second result for the same pair conflicts", func() {
				w := c.do("POST", "/results", `{"athlete_id":"n1","race_id":"opener-b","time_seconds":900}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(w), ShouldEqual, "duplicate_result")
			})

			Convey("A bad clock is a bad request", func() {
				w := c.do("POST", "/results", `{"athlete_id":"n1","race_id":"opener-b","time":"16:75"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("After draining the queue", func() {
				svc.Stop()
				So(svc.Start(ctx), ShouldBeNil)

				Convey("The race scores", func() {
					w := c.do("GET", "/races/opener-b/scoring", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					var out types.RaceScoring
					So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
					So(out.Overall, ShouldHaveLength, 10)
					So(out.Standings, ShouldHaveLength, 2)
					So(out.Standings[0].Score, ShouldBeLessThan, out.Standings[1].Score)
				})

				Convey("Athlete records and rank are served", func() {
					So(c.do("GET", "/athletes/n1/records", "").Code, ShouldEqual, http.StatusOK)
					w := c.do("GET", "/athletes/n1/rank", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					var row api.Entry
					So(json.Unmarshal(w.Body.Bytes(), &row), ShouldBeNil)
					So(row.Rank, ShouldEqual, 1)
				})

				Convey("Improvement without prior results is insufficient data", func() {
					w := c.do("GET", "/athletes/n1/improvement?cutoff=2024-01-01", "")
					So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
					So(errorCode(w), ShouldEqual, "insufficient_data")

					w = c.do("GET", "/athletes/n1/improvement", "")
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				})

				Convey("School endpoints need their parameters", func() {
					So(c.do("GET", "/schools/north/records?gender=boys", "").Code, ShouldEqual, http.StatusOK)
					So(c.do("GET", "/schools/north/records", "").Code, ShouldEqual, http.StatusBadRequest)
					So(c.do("GET", "/schools/north/team-bests?course=flat", "").Code, ShouldEqual, http.StatusOK)
					So(c.do("GET", "/schools/north/team-bests", "").Code, ShouldEqual, http.StatusBadRequest)
					So(c.do("GET", "/schools/north/top?gender=M&limit=3", "").Code, ShouldEqual, http.StatusBadRequest)
					So(c.do("GET", "/schools/ghost/top?gender=M&mode=best", "").Code, ShouldEqual, http.StatusNotFound)

					w := c.do("GET", "/top?gender=M&mode=best&limit=3", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					var top struct {
						Mode string                   `json:"mode"`
						Top  []types.LeaderboardEntry `json:"top"`
					}
					So(json.Unmarshal(w.Body.Bytes(), &top), ShouldBeNil)
					So(top.Mode, ShouldEqual, "best-per-athlete")
					So(top.Top, ShouldHaveLength, 3)
				})

				Convey("The live leaderboard checks its limit", func() {
					w := c.do("GET", "/leaderboard?gender=M&limit=3", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					var rows []api.Entry
					So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
					So(rows, ShouldHaveLength, 3)
					So(rows[0].AthleteID, ShouldEqual, "n1")

					So(c.do("GET", "/leaderboard?gender=M", "").Code, ShouldEqual, http.StatusBadRequest)
					So(c.do("GET", "/leaderboard?gender=M&limit=51", "").Code, ShouldEqual, http.StatusBadRequest)
				})

				Convey("Movers need a cutoff", func() {
					w := c.do("GET", "/movers?cutoff=2024-10-01", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					So(c.do("GET", "/movers", "").Code, ShouldEqual, http.StatusBadRequest)
				})
			})
		})
	})
}
