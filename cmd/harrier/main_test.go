package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harrier/internal/config"
	"github.com/okian/harrier/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const catalogYAML = `
courses:
  - id: flat
    name: Flat 5K
    distance_meters: 5000
    normalization_rating: 1.0
schools:
  - id: north
    name: North
meets:
  - id: opener
    name: Opener
    date: 2024-09-07
    course_id: flat
athletes:
  - id: a1
    first_name: Ana
    last_name: Ruiz
    gender: F
    graduation_year: 2026
    school_id: north
races:
  - id: opener-g
    meet_id: opener
    gender: F
results:
  - id: r1
    athlete_id: a1
    race_id: opener-g
    time: "19:02.5"
`

func TestOpenStore(t *testing.T) {
	Convey("Given a config", t, func() {
		ctx := context.Background()
		cfg := config.New()

		Convey("Without a db path the store is in memory", func() {
			s, err := openStore(ctx, cfg)
			So(err, ShouldBeNil)
			defer s.Close()
			counts, err := s.Counts(ctx)
			So(err, ShouldBeNil)
			So(counts.Results, ShouldEqual, 0)
		})

		Convey("With a db path the store is SQLite", func() {
			cfg.DBPath = filepath.Join(t.TempDir(), "harrier.db")
			s, err := openStore(ctx, cfg)
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)
			_, err = os.Stat(cfg.DBPath)
			So(err, ShouldBeNil)
		})
	})
}

func TestRouter(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1

		store, err := openStore(ctx, cfg)
		So(err, ShouldBeNil)
		defer store.Close()

		svc := newService(cfg, store, logger.Get())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		router := newRouter(svc)

		get := func(path string) int {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
			return w.Code
		}

		Convey("Docs, health and metrics are routed", func() {
			So(get("/openapi.yaml"), ShouldEqual, http.StatusOK)
			So(get("/api-docs"), ShouldEqual, http.StatusOK)
			So(get("/healthz"), ShouldEqual, http.StatusOK)
			So(get("/metrics"), ShouldEqual, http.StatusOK)
		})

		Convey("Unknown ids are 404", func() {
			So(get("/races/ghost/scoring"), ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a config with a catalog", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 1
		cfg.CatalogPath = filepath.Join(t.TempDir(), "catalog.yaml")
		So(os.WriteFile(cfg.CatalogPath, []byte(catalogYAML), 0o600), ShouldBeNil)

		Convey("run returns cleanly when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			So(run(ctx, cfg), ShouldBeNil)
		})

		Convey("run fails on a missing catalog", func() {
			cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
			So(run(context.Background(), cfg), ShouldNotBeNil)
		})
	})
}

func TestApplyLogLevel(t *testing.T) {
	Convey("An invalid level falls back without panicking", t, func() {
		So(func() { applyLogLevel(context.Background(), "loud") }, ShouldNotPanic)
		So(func() { applyLogLevel(context.Background(), "debug") }, ShouldNotPanic)
		applyLogLevel(context.Background(), "info")
	})
}
