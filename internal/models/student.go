package models

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/academic"
)

// StudentStatus tracks where a student is in their studies.
type StudentStatus string

const (
	StudentStatusStudying       StudentStatus = "Studying"
	StudentStatusLeaveOfAbsence StudentStatus = "Leave of absence"
	StudentStatusOnExchange     StudentStatus = "On Exchange"
	StudentStatusRetired        StudentStatus = "Retired"
	StudentStatusResigned       StudentStatus = "Resigned"
	StudentStatusAlumni         StudentStatus = "Alumni"
	StudentStatusUnknown        StudentStatus = "Unknown"
)

// Student is identified by sid and owns its progress columns.
type Student struct {
	ID                string        `db:"id" json:"id"`
	SID               string        `db:"sid" json:"sid"`
	GivenName         string        `db:"given_name" json:"given_name"`
	FamilyName        string        `db:"family_name" json:"family_name"`
	Batch             string        `db:"batch" json:"batch"`
	Program           string        `db:"program" json:"program"`
	Status            StudentStatus `db:"status" json:"status"`
	CreditsAttempted  int           `db:"credits_attempted" json:"-"`
	CoreEarned        int           `db:"core_earned" json:"-"`
	RequiredEarned    int           `db:"required_earned" json:"-"`
	ElectiveEarned    int           `db:"elective_earned" json:"-"`
	GPA               *float64      `db:"gpa" json:"-"`
	ProgressUpdatedAt *time.Time    `db:"progress_updated_at" json:"progress_updated_at,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// Progress returns the stored progress record.
func (s Student) Progress() academic.ProgressRecord {
	return academic.ProgressRecord{
		CreditsAttempted: s.CreditsAttempted,
		CoreEarned:       s.CoreEarned,
		RequiredEarned:   s.RequiredEarned,
		ElectiveEarned:   s.ElectiveEarned,
		GPA:              s.GPA,
	}
}

// ApplyProgress copies a recomputed record onto the student.
func (s *Student) ApplyProgress(record academic.ProgressRecord, at time.Time) {
	s.CreditsAttempted = record.CreditsAttempted
	s.CoreEarned = record.CoreEarned
	s.RequiredEarned = record.RequiredEarned
	s.ElectiveEarned = record.ElectiveEarned
	s.GPA = nil
	if record.GPA != nil {
		gpa := academic.RoundGPA(*record.GPA)
		s.GPA = &gpa
	}
	s.ProgressUpdatedAt = &at
}

// StudentFilter restricts roster queries.
type StudentFilter struct {
	Batches []string
	Program string
}
