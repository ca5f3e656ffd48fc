package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleCurricula() []Curriculum {
	return []Curriculum{
		{
			ID:       "cur-2019",
			Batches:  []string{"6088", "6188"},
			Core:     []string{"egci111"},
			Required: []string{"egci222", "egci333"},
			Elective: []string{"egci333", "egci444"},
		},
		{
			ID:       "cur-2021",
			Batches:  []string{"6288"},
			Core:     []string{"egci444"},
			Elective: []string{"egci111"},
		},
	}
}

func TestClassifyPriority(t *testing.T) {
	curricula := sampleCurricula()

	assert.Equal(t, CategoryCore, Classify(curricula, "6088", "egci111").Category)
	assert.Equal(t, CategoryRequired, Classify(curricula, "6088", "egci222").Category)
	// listed as both required and elective
	assert.Equal(t, CategoryRequired, Classify(curricula, "6188", "egci333").Category)
	assert.Equal(t, CategoryElective, Classify(curricula, "6088", "egci444").Category)
	assert.Equal(t, CategoryNone, Classify(curricula, "6088", "egci999").Category)
}

func TestClassifyUsesBatchCurriculum(t *testing.T) {
	curricula := sampleCurricula()

	got := Classify(curricula, "6288", "egci444")
	assert.Equal(t, CategoryCore, got.Category)
	assert.Equal(t, "cur-2021", got.CurriculumID)
	assert.Empty(t, got.Conflicts)

	assert.Equal(t, CategoryNone, Classify(curricula, "5988", "egci111").Category)
	assert.Equal(t, CategoryNone, Classify(curricula, "", "egci111").Category)
}

func TestClassifyReportsConflictingCurricula(t *testing.T) {
	curricula := append(sampleCurricula(), Curriculum{ID: "cur-dup", Batches: []string{"6088"}, Elective: []string{"egci111"}})

	got := Classify(curricula, "6088", "egci111")
	assert.Equal(t, CategoryCore, got.Category)
	assert.Equal(t, "cur-2019", got.CurriculumID)
	assert.Equal(t, []string{"cur-dup"}, got.Conflicts)
}

func TestCategoriesForCourse(t *testing.T) {
	curricula := sampleCurricula()

	set := CategoriesForCourse(curricula, "egci111")
	assert.True(t, set.Has(CategoryCore))
	assert.True(t, set.Has(CategoryElective))
	assert.False(t, set.Has(CategoryRequired))
	assert.Equal(t, []string{"core_course", "elective_courses"}, set.Labels())

	assert.Equal(t, []string{"elective_courses", "required_courses"}, CategoriesForCourse(curricula, "egci333").Labels())
	assert.Empty(t, CategoriesForCourse(curricula, "egci999").Labels())
}
