package academic

import "sort"

// Category is the credit bucket a course falls into for a student.
type Category string

const (
	CategoryCore     Category = "core"
	CategoryRequired Category = "required"
	CategoryElective Category = "elective"
	CategoryNone     Category = "none"
)

// Credited reports whether the category feeds a progress bucket.
func (c Category) Credited() bool {
	return c == CategoryCore || c == CategoryRequired || c == CategoryElective
}

// ReportLabel is the catalog label used by course reports.
func (c Category) ReportLabel() string {
	switch c {
	case CategoryCore:
		return "core_course"
	case CategoryRequired:
		return "required_courses"
	case CategoryElective:
		return "elective_courses"
	default:
		return ""
	}
}

// Curriculum is the classification view of a curriculum: the batches it
// governs and the course IDs in each category.
type Curriculum struct {
	ID       string
	Batches  []string
	Core     []string
	Required []string
	Elective []string
}

func (c Curriculum) governs(batch string) bool {
	for _, b := range c.Batches {
		if b == batch {
			return true
		}
	}
	return false
}

// categoryOf checks membership in priority order core, required, elective.
func (c Curriculum) categoryOf(courseID string) Category {
	if contains(c.Core, courseID) {
		return CategoryCore
	}
	if contains(c.Required, courseID) {
		return CategoryRequired
	}
	if contains(c.Elective, courseID) {
		return CategoryElective
	}
	return CategoryNone
}

// Classification is the result of classifying one course for one batch.
type Classification struct {
	Category     Category
	CurriculumID string
	// Conflicts lists other curricula that also govern the batch.
	Conflicts []string
}

// Classify picks the first curriculum governing batch and returns the
// course's category within it.
func Classify(curricula []Curriculum, batch, courseID string) Classification {
	result := Classification{Category: CategoryNone}
	if batch == "" {
		return result
	}
	matched := false
	for _, cur := range curricula {
		if !cur.governs(batch) {
			continue
		}
		if matched {
			result.Conflicts = append(result.Conflicts, cur.ID)
			continue
		}
		matched = true
		result.CurriculumID = cur.ID
		result.Category = cur.categoryOf(courseID)
	}
	return result
}

// CategorySet is a set of categories.
type CategorySet map[Category]struct{}

// Has reports membership.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Labels returns the sorted report labels of the set.
func (s CategorySet) Labels() []string {
	labels := make([]string, 0, len(s))
	for c := range s {
		if label := c.ReportLabel(); label != "" {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

// CategoriesForCourse collects every category the course holds in any curriculum.
func CategoriesForCourse(curricula []Curriculum, courseID string) CategorySet {
	set := CategorySet{}
	for _, cur := range curricula {
		if contains(cur.Core, courseID) {
			set[CategoryCore] = struct{}{}
		}
		if contains(cur.Required, courseID) {
			set[CategoryRequired] = struct{}{}
		}
		if contains(cur.Elective, courseID) {
			set[CategoryElective] = struct{}{}
		}
	}
	return set
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
