package records

import (
	"fmt"
	"strings"
)

// Mode selects how a top-N list treats repeat athletes. There is no default.
type Mode int

const (
	modeUnset Mode = iota
	// ModeAllEntries lets an athlete appear once per result.
	ModeAllEntries
	// ModeBestPerAthlete keeps only each athlete's fastest result.
	ModeBestPerAthlete
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAllEntries:
		return "all"
	case ModeBestPerAthlete:
		return "best-per-athlete"
	default:
		return "unset"
	}
}

// Valid reports whether the mode was explicitly chosen.
func (m Mode) Valid() bool {
	return m == ModeAllEntries || m == ModeBestPerAthlete
}

// ParseMode parses the wire name of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "all-entries":
		return ModeAllEntries, nil
	case "best", "best-per-athlete":
		return ModeBestPerAthlete, nil
	default:
		return modeUnset, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
