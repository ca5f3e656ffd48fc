// Package academic holds the pure rules of the records engine: the grade
// scale, curriculum classification, duplicate detection, progress
// computation and cohort deduplication. Nothing here touches storage.
package academic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGrade is returned for letters outside the grade scale.
var ErrUnknownGrade = errors.New("unknown grade letter")

// GradeOutcome separates the non-numeric meanings a letter can carry.
type GradeOutcome string

const (
	OutcomeGraded         GradeOutcome = "graded"
	OutcomeSatisfactory   GradeOutcome = "satisfactory"
	OutcomeNonGraded      GradeOutcome = "non_graded"
	OutcomeUnsatisfactory GradeOutcome = "unsatisfactory"
)

// GradeValue is the numeric interpretation of a letter grade.
type GradeValue struct {
	Letter    string
	Value     float64
	IsGrading bool
	Outcome   GradeOutcome
}

var gradeScale = map[string]GradeValue{
	"A":  {Letter: "A", Value: 4.0, IsGrading: true, Outcome: OutcomeGraded},
	"B+": {Letter: "B+", Value: 3.5, IsGrading: true, Outcome: OutcomeGraded},
	"B":  {Letter: "B", Value: 3.0, IsGrading: true, Outcome: OutcomeGraded},
	"C+": {Letter: "C+", Value: 2.5, IsGrading: true, Outcome: OutcomeGraded},
	"C":  {Letter: "C", Value: 2.0, IsGrading: true, Outcome: OutcomeGraded},
	"D+": {Letter: "D+", Value: 1.5, IsGrading: true, Outcome: OutcomeGraded},
	"D":  {Letter: "D", Value: 1.0, IsGrading: true, Outcome: OutcomeGraded},
	"F":  {Letter: "F", Value: 0.0, IsGrading: true, Outcome: OutcomeGraded},
	"S":  {Letter: "S", Value: 0.0, IsGrading: false, Outcome: OutcomeSatisfactory},
	"X":  {Letter: "X", Value: 0.0, IsGrading: false, Outcome: OutcomeNonGraded},
	"AU": {Letter: "AU", Value: 0.0, IsGrading: false, Outcome: OutcomeNonGraded},
	"I":  {Letter: "I", Value: 0.0, IsGrading: false, Outcome: OutcomeNonGraded},
	"W":  {Letter: "W", Value: 0.0, IsGrading: false, Outcome: OutcomeNonGraded},
	"U":  {Letter: "U", Value: 0.0, IsGrading: false, Outcome: OutcomeUnsatisfactory},
}

// GradeToValue maps a canonical letter grade to its value. Lookup is case-sensitive.
func GradeToValue(letter string) (GradeValue, error) {
	gv, ok := gradeScale[letter]
	if !ok {
		return GradeValue{}, fmt.Errorf("%w: %q", ErrUnknownGrade, letter)
	}
	return gv, nil
}

// GradeLetters returns the canonical letters in scale order.
func GradeLetters() []string {
	return []string{"A", "B+", "B", "C+", "C", "D+", "D", "F", "S", "X", "AU", "I", "W", "U"}
}

// IsPass reports whether an attempt earns credit: a positive value or an S grade.
func IsPass(value float64, letter string) bool {
	return value > 0 || strings.EqualFold(strings.TrimSpace(letter), "S")
}
