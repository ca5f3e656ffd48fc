package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeToValueTable(t *testing.T) {
	cases := []struct {
		letter    string
		value     float64
		isGrading bool
		outcome   GradeOutcome
	}{
		{"A", 4.0, true, OutcomeGraded},
		{"B+", 3.5, true, OutcomeGraded},
		{"B", 3.0, true, OutcomeGraded},
		{"C+", 2.5, true, OutcomeGraded},
		{"C", 2.0, true, OutcomeGraded},
		{"D+", 1.5, true, OutcomeGraded},
		{"D", 1.0, true, OutcomeGraded},
		{"F", 0.0, true, OutcomeGraded},
		{"S", 0.0, false, OutcomeSatisfactory},
		{"X", 0.0, false, OutcomeNonGraded},
		{"AU", 0.0, false, OutcomeNonGraded},
		{"I", 0.0, false, OutcomeNonGraded},
		{"W", 0.0, false, OutcomeNonGraded},
		{"U", 0.0, false, OutcomeUnsatisfactory},
	}
	for _, tc := range cases {
		t.Run(tc.letter, func(t *testing.T) {
			gv, err := GradeToValue(tc.letter)
			require.NoError(t, err)
			assert.Equal(t, tc.value, gv.Value)
			assert.Equal(t, tc.isGrading, gv.IsGrading)
			assert.Equal(t, tc.outcome, gv.Outcome)

			again, err := GradeToValue(tc.letter)
			require.NoError(t, err)
			assert.Equal(t, gv, again)
		})
	}
	assert.Len(t, GradeLetters(), len(cases))
}

func TestGradeToValueRejectsUnknownLetters(t *testing.T) {
	for _, letter := range []string{"", "a", "E", "A+", "b+", " A"} {
		_, err := GradeToValue(letter)
		assert.ErrorIs(t, err, ErrUnknownGrade, letter)
	}
}

func TestIsPass(t *testing.T) {
	assert.True(t, IsPass(1.0, "D"))
	assert.True(t, IsPass(0, "S"))
	assert.True(t, IsPass(0, "s"))
	assert.False(t, IsPass(0, "F"))
	assert.False(t, IsPass(0, "W"))
	assert.False(t, IsPass(0, "U"))
}
