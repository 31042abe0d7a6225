package service

import "errors"

// Sentinel kinds returned by the service on top of the repository and
// domain errors it passes through.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("ingestion queue full")
	ErrInvalidArgument = errors.New("invalid argument")
)
