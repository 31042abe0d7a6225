package records

const (
	defaultTopLimit      = 10
	defaultTeamBestLimit = 10
)

// Option configures Compute.
type Option func(*computeOptions)

type computeOptions struct {
	topLimit      int
	teamBestLimit int
}

// WithTopLimit sets N for the top list of a RecordSet.
func WithTopLimit(n int) Option {
	return func(o *computeOptions) {
		if n > 0 {
			o.topLimit = n
		}
	}
}

// WithTeamBestLimit sets N for the team-bests list of a school RecordSet.
func WithTeamBestLimit(n int) Option {
	return func(o *computeOptions) {
		if n > 0 {
			o.teamBestLimit = n
		}
	}
}
