package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/harrier/internal/seed"
	"github.com/okian/harrier/pkg/logger"
)

// Default configuration constants.
const (
	defaultSchools  = 8
	defaultAthletes = 14
	defaultMeets    = 6
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultSettle   = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		schools  = flag.Int("schools", defaultSchools, "Number of schools")
		athletes = flag.Int("athletes", defaultAthletes, "Athletes per school")
		meets    = flag.Int("meets", defaultMeets, "Number of weekly meets")
		randSeed = flag.Uint64("seed", 1, "Generator seed")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent result submitters")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", defaultSettle, "How long to wait for results to be stored")
		logFile  = flag.String("log", "", "Log file (default: seed_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	closer, err := seed.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunLimit)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:           *baseURL,
		Schools:           *schools,
		AthletesPerSchool: *athletes,
		Meets:             *meets,
		RandSeed:          *randSeed,
		Workers:           *workers,
		Timeout:           *timeout,
		Settle:            *settle,
		Verbose:           *verbose,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed run failed", logger.Error(err))
		// os.Exit skips deferred calls.
		cancel()
		closer.Close()
		os.Exit(1)
	}
}
