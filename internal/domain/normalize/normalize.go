// Package normalize converts raw finish times into course-independent
// XC-equivalent times.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/harrier/internal/domain/model"
)

// Difficulty labels. Thresholds apply to the difficulty multiplier, which is
// relative hardness vs a flat one-mile track race.
const (
	LabelUnknown  = "unknown"
	LabelFlat     = "flat"
	LabelModerate = "moderate"
	LabelHard     = "hard"
	LabelVeryHard = "very hard"

	flatMax     = 1.02
	moderateMax = 1.06
	hardMax     = 1.10
)

// Normalize returns raw * course.NormalizationRating.
func Normalize(rawSeconds float64, c model.Course) (float64, error) {
	if c.NormalizationRating == nil {
		return 0, &MissingRatingError{CourseID: c.ID}
	}
	return rawSeconds * *c.NormalizationRating, nil
}

// Entry normalizes the raw time of a joined entry on its own course.
func Entry(e model.Entry) (float64, error) {
	return Normalize(e.Result.TimeSeconds, e.Course)
}

// Difficulty describes how hard a course is. It only reads the difficulty
// multiplier and must never feed a numeric comparison.
func Difficulty(c model.Course) string {
	if c.DifficultyMultiplier == nil {
		return LabelUnknown
	}
	switch m := *c.DifficultyMultiplier; {
	case m <= flatMax:
		return LabelFlat
	case m <= moderateMax:
		return LabelModerate
	case m <= hardMax:
		return LabelHard
	default:
		return LabelVeryHard
	}
}

// FormatTime renders seconds as m:ss.s.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		return "-"
	}
	tenths := int64(math.Round(seconds * 10))
	mins := tenths / 600
	rem := tenths % 600
	return fmt.Sprintf("%d:%02d.%d", mins, rem/10, rem%10)
}

// ParseClock reads a finish time written as seconds ("1002.4"), m:ss.s
// ("16:42.4") or h:mm:ss.s.
func ParseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadClock)
	}
	total := 0.0
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		total = total*60 + v
	}
	if !(total > 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return total, nil
}
