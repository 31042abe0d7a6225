package model

import "time"

// Entry is a Result pre-joined with everything the engine needs. How the
// join is performed is up to the persistence layer.
type Entry struct {
	Result  Result  `json:"result"`
	Athlete Athlete `json:"athlete"`
	Race    Race    `json:"race"`
	Meet    Meet    `json:"meet"`
	Course  Course  `json:"course"`
	School  School  `json:"school"`
}

// Key returns the (athlete, race) pair key.
func (e Entry) Key() string {
	return e.Result.Key()
}

// Date is the meet date of the result.
func (e Entry) Date() time.Time {
	return e.Meet.Date
}

// Grade applies the athletic-year rule to the athlete's graduation year.
func (e Entry) Grade() int {
	return GradeAt(e.Athlete.GraduationYear, e.Meet.Date)
}

// Gender is the athlete's own gender.
func (e Entry) Gender() Gender {
	return e.Athlete.Gender
}

// SchoolID is the joined school, falling back to the athlete's current school.
func (e Entry) SchoolID() string {
	if e.School.ID != "" {
		return e.School.ID
	}
	return e.Athlete.SchoolID
}
