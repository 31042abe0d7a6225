package repository

import "time"

// Option configures a Leaderboard.
type Option func(*Leaderboard)

// WithSnapshotInterval sets how often snapshots are published.
func WithSnapshotInterval(d time.Duration) Option {
	return func(l *Leaderboard) {
		if d > 0 {
			l.snapshotInterval = d
		}
	}
}

// WithTopCacheSize sets how many rows per gender a snapshot keeps.
func WithTopCacheSize(n int) Option {
	return func(l *Leaderboard) {
		if n > 0 {
			l.topCacheSize = n
		}
	}
}
