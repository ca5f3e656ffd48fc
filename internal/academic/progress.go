package academic

import "math"

// TakenCourse is one enrollment as seen by the progress computation.
type TakenCourse struct {
	EnrollmentID string
	ClassID      string
	CourseID     string
	CourseCode   string
	Credit       int
	Grade        string
	GradeValue   float64
	IsGrading    bool
}

// Passed reports whether the enrollment earns credit.
func (t TakenCourse) Passed() bool {
	return IsPass(t.GradeValue, t.Grade)
}

// ProgressRecord is a student's derived credit and GPA summary.
type ProgressRecord struct {
	CreditsAttempted int      `json:"credits_attempted"`
	CoreEarned       int      `json:"core_earned"`
	RequiredEarned   int      `json:"required_earned"`
	ElectiveEarned   int      `json:"elective_earned"`
	GPA              *float64 `json:"gpa"`
}

// TotalEarned sums the earned credits of all buckets.
func (p ProgressRecord) TotalEarned() int {
	return p.CoreEarned + p.RequiredEarned + p.ElectiveEarned
}

// HasGPA reports whether any graded credit exists yet.
func (p ProgressRecord) HasGPA() bool {
	return p.GPA != nil
}

// Recompute derives the progress record from the complete bucket contents.
func Recompute(core, required, elective []TakenCourse) ProgressRecord {
	var (
		record      ProgressRecord
		numerator   float64
		denominator int
	)

	tally := func(bucket []TakenCourse, earned *int) {
		for _, t := range bucket {
			if t.IsGrading {
				record.CreditsAttempted += t.Credit
				numerator += t.GradeValue * float64(t.Credit)
				denominator += t.Credit
			}
			if t.Passed() {
				*earned += t.Credit
			}
		}
	}

	tally(core, &record.CoreEarned)
	tally(required, &record.RequiredEarned)
	tally(elective, &record.ElectiveEarned)

	if denominator > 0 {
		gpa := numerator / float64(denominator)
		record.GPA = &gpa
	}
	return record
}

// RoundGPA rounds to four decimals for storage.
func RoundGPA(v float64) float64 {
	return math.Round(v*10000) / 10000
}
