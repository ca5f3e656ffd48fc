package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestNewCohortReport(t *testing.T) {
	course := NewCourseView(models.Course{ID: "c1", Code: "EGCI111", Credit: 3, CreditLecture: 2, CreditLab: 1}, nil)
	result := academic.CohortResult{
		Completed:    []academic.CohortAttempt{{SID: "Y", Batch: "6088", Program: "ICCI", Grade: "A", GradeValue: 4, Year: 2020, Trimester: "1"}},
		Superseded:   []string{"X"},
		Unregistered: []academic.CohortStudent{{SID: "Z", Batch: "6088", Program: "ICCI"}},
	}

	report := NewCohortReport(course, []string{"6088"}, result)

	assert.Equal(t, 1, report.Total)
	require.Len(t, report.Completed, 1)
	assert.Equal(t, CohortStudent{Course: "EGCI111", SID: "Y", Batch: "6088", Program: "ICCI", Grade: "A", GradeValue: 4, Trimester: "2020T1"}, report.Completed[0])
	assert.Equal(t, []string{"X"}, report.Superseded)
	assert.Equal(t, "Z", report.Unregistered[0].SID)
	assert.Equal(t, []string{}, report.Course.Category)
	assert.Equal(t, models.CreditBreakdown{Lecture: 2, Lab: 1}, report.Course.CreditDescription)
}
