package academic

import (
	"strconv"
	"strings"
)

// TermKey orders offerings chronologically when compared as strings.
func TermKey(year int, trimester string) string {
	return strconv.Itoa(year) + "T" + strings.TrimSpace(trimester)
}

// CohortAttempt is one enrollment in an offering of the reported course.
type CohortAttempt struct {
	CourseID   string
	CourseCode string
	ClassID    string
	SID        string
	Batch      string
	Program    string
	Grade      string
	GradeValue float64
	Year       int
	Trimester  string
}

// TermKey returns the offering's term key.
func (a CohortAttempt) TermKey() string {
	return TermKey(a.Year, a.Trimester)
}

// Passed reports whether the attempt earned credit.
func (a CohortAttempt) Passed() bool {
	return IsPass(a.GradeValue, a.Grade)
}

// CohortStudent is a roster entry considered for the unregistered list.
type CohortStudent struct {
	SID        string
	Batch      string
	Program    string
	GivenName  string
	FamilyName string
}

// CohortFilter restricts attempts and roster entries to the requested cohort.
type CohortFilter struct {
	Batches               []string
	Program               string
	IncludeOutsideProgram bool
}

// Admits reports whether a student with batch and program belongs to the cohort.
func (f CohortFilter) Admits(batch, program string) bool {
	if len(f.Batches) > 0 && !contains(f.Batches, batch) {
		return false
	}
	if f.IncludeOutsideProgram || f.Program == "" {
		return true
	}
	return strings.EqualFold(program, f.Program)
}

// CohortResult is the deduplicated outcome for one course.
type CohortResult struct {
	Completed []CohortAttempt
	// Superseded holds students whose latest attempt failed after an earlier pass.
	Superseded   []string
	Unregistered []CohortStudent
}

// BuildCohort applies the latest-attempt rule to attempts and derives the
// unregistered roster. Attempts must be given in offering then enrollment
// order; among attempts in the same term a pass is preferred, then the first seen.
func BuildCohort(attempts []CohortAttempt, roster []CohortStudent, filter CohortFilter) CohortResult {
	latest := make(map[string]CohortAttempt)
	passedBefore := make(map[string]bool)
	order := make([]string, 0)

	for _, a := range attempts {
		if !filter.Admits(a.Batch, a.Program) {
			continue
		}
		if a.Passed() {
			passedBefore[a.SID] = true
		}
		current, seen := latest[a.SID]
		if !seen {
			latest[a.SID] = a
			order = append(order, a.SID)
			continue
		}
		key, currentKey := a.TermKey(), current.TermKey()
		if key > currentKey || (key == currentKey && !current.Passed() && a.Passed()) {
			latest[a.SID] = a
		}
	}

	var result CohortResult
	excluded := make(map[string]struct{}, len(order))
	for _, sid := range order {
		a := latest[sid]
		switch {
		case a.Passed():
			result.Completed = append(result.Completed, a)
			excluded[sid] = struct{}{}
		case passedBefore[sid]:
			result.Superseded = append(result.Superseded, sid)
			excluded[sid] = struct{}{}
		}
	}

	for _, s := range roster {
		if !filter.Admits(s.Batch, s.Program) {
			continue
		}
		if _, ok := excluded[s.SID]; ok {
			continue
		}
		result.Unregistered = append(result.Unregistered, s)
	}
	return result
}
