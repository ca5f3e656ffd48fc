package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateChecksPreInsertionState(t *testing.T) {
	taken := TakenClassSet([]TakenCourse{
		{EnrollmentID: "e1", ClassID: "class-1"},
		{EnrollmentID: "e2", ClassID: "class-2"},
	})

	assert.True(t, IsDuplicate(taken, "class-1"))
	assert.False(t, IsDuplicate(taken, "class-3"))
	assert.False(t, IsDuplicate(TakenClassSet(nil), "class-1"))
}
