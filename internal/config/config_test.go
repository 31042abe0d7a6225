package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
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

func TestConfig_New(t *testing.T) {
	Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		Convey("Then it should have sensible defaults", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.LogFormat, ShouldEqual, "json")
			So(cfg.QueueSize, ShouldEqual, 10_000)
			So(cfg.WorkerCount, ShouldEqual, runtime.NumCPU())
			So(cfg.DedupeSize, ShouldEqual, 500_000)
			So(cfg.MaxLeaderboardLimit, ShouldEqual, 100)
			So(cfg.MoversLimit, ShouldEqual, 10)
			So(cfg.SnapshotInterval, ShouldEqual, time.Second)
			So(cfg.SnapshotTop, ShouldEqual, 100)
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestWatch(t *testing.T) {
	Convey("Given a watched config file", t, func() {
		clearConfigEnvVars()
		path := filepath.Join(t.TempDir(), "harrier.yaml")
		So(os.WriteFile(path, []byte("log_level: info\n"), 0o600), ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan *config.Config, 4)
		done := make(chan error, 1)
		go func() {
			done <- config.Watch(ctx, path, func(c *config.Config) { changes <- c })
		}()
		// Give the watcher time to register before writing.
		time.Sleep(50 * time.Millisecond)

		Convey("When the file is rewritten with a new level", func() {
			So(os.WriteFile(path, []byte("log_level: debug\n"), 0o600), ShouldBeNil)

			Convey("Then onChange receives the reloaded config", func() {
				// A truncating write can surface an empty file first.
				level := ""
				timeout := time.After(2 * time.Second)
				for level != "debug" {
					select {
					case c := <-changes:
						level = c.LogLevel
					case <-timeout:
						So("no reload observed", ShouldBeEmpty)
						return
					}
				}
				So(level, ShouldEqual, "debug")
			})
		})

		Convey("When the context is cancelled", func() {
			cancel()

			Convey("Then Watch returns without error", func() {
				select {
				case err := <-done:
					So(err, ShouldBeNil)
				case <-time.After(2 * time.Second):
					So("watch still running", ShouldBeEmpty)
				}
			})
		})
	})

	Convey("Watching a missing file fails", t, func() {
		err := config.Watch(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), func(*config.Config) {})
		So(err, ShouldNotBeNil)
	})
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Non-positive snapshot settings are rejected", func() {
			cfg.SnapshotInterval = 0
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
			cfg.SnapshotInterval = time.Second
			cfg.SnapshotTop = 0
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("An unknown log format is rejected", func() {
			cfg.LogFormat = "xml"
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
