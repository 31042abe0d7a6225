package model

import "time"

// Grade bounds for grade-level records.
const (
	MinGrade = 9
	MaxGrade = 12
)

// SchoolYearEnding returns the calendar year in which the athletic year
// containing d ends. The athletic year runs July 1 to June 30.
func SchoolYearEnding(d time.Time) int {
	if d.Month() >= time.July {
		return d.Year() + 1
	}
	return d.Year()
}

// GradeAt infers the competition grade of an athlete graduating in
// graduationYear for a result dated d. The value may fall outside 9..12.
func GradeAt(graduationYear int, d time.Time) int {
	return 12 - (graduationYear - SchoolYearEnding(d))
}

// ValidGrade reports whether g can be attributed to a grade-level record.
func ValidGrade(g int) bool {
	return g >= MinGrade && g <= MaxGrade
}
