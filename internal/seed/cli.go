package seed

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/harrier/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends JSON logs to stdout and to logFile.
// An empty logFile gets a timestamped name.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "seed_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithFormat("json"), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Harrier Seed Tool
=================

Generates a synthetic cross-country season, posts it to a running harrier
server and checks the team scoring and leaderboards it returns.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -schools int
        Number of schools (default 8)
  -athletes int
        Athletes per school, alternating boys and girls (default 14)
  -meets int
        Number of weekly meets; the last one is the championship (default 6)
  -seed uint
        Generator seed; the same seed posts the same season (default 1)
  -workers int
        Concurrent result submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for queued results to be stored (default 30s)
  -log string
        Log file (default: seed_TIMESTAMP.log)
  -verbose
        Log every race checked and every rejected result
  -help
        Show this help message

Examples:
  # Seed a local server
  go run ./cmd/seed

  # A bigger league against another port
  go run ./cmd/seed -schools 20 -athletes 20 -meets 9 -url http://localhost:8080
`)
}
