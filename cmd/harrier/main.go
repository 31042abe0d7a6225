package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/okian/harrier/internal/adapters/http/api"
	"github.com/okian/harrier/internal/adapters/http/swagger"
	"github.com/okian/harrier/internal/adapters/repository"
	app "github.com/okian/harrier/internal/app"
	"github.com/okian/harrier/internal/config"
	"github.com/okian/harrier/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	applyLogLevel(ctx, cfg.LogLevel)

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "harrier stopped", logger.Error(err))
		os.Exit(1)
	}
}

// applyLogLevel sets the configured level, falling back to info on invalid input.
func applyLogLevel(ctx context.Context, level string) {
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store", logger.Error(err))
		}
	}()

	if cfg.CatalogPath != "" {
		counts, err := repository.LoadCatalogFile(ctx, cfg.CatalogPath, store)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		log.Info(ctx, "catalog loaded",
			logger.String("path", cfg.CatalogPath),
			logger.Int("courses", counts.Courses),
			logger.Int("meets", counts.Meets),
			logger.Int("athletes", counts.Athletes),
			logger.Int("results", counts.Results),
		)
	}

	svc := newService(cfg, store, log)
	// Workers outlive the signal so Stop can drain the queue.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if path := os.Getenv(config.PathEnv); path != "" {
		go watchConfig(ctx, path)
	}
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore opens SQLite when db_path is set, memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DBPath == "" {
		return repository.NewMemStore(), nil
	}
	s, err := repository.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
	}
	return s, nil
}

func newService(cfg *config.Config, store repository.Store, log logger.Logger) *app.Service {
	return app.New(
		app.WithStore(store),
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxLimit(cfg.MaxLeaderboardLimit),
		app.WithTeamScoring(cfg.Scorers, cfg.Displacers),
		app.WithMoversLimit(cfg.MoversLimit),
		app.WithLeaderboardOptions(
			repository.WithSnapshotInterval(cfg.SnapshotInterval),
			repository.WithTopCacheSize(cfg.SnapshotTop),
		),
	)
}

func newRouter(svc *app.Service) *mux.Router {
	r := mux.NewRouter()
	swagger.Register(r)
	api.NewServer(svc).Register(r)
	return r
}

// watchConfig re-applies the log level whenever the config file changes.
func watchConfig(ctx context.Context, path string) {
	err := config.Watch(ctx, path, func(c *config.Config) {
		applyLogLevel(ctx, c.LogLevel)
	})
	if err != nil {
		logger.Get().Warn(ctx, "config watch stopped", logger.Error(err))
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the queue gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}
