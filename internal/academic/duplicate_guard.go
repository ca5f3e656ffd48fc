package academic

// TakenClassSet builds the set of class IDs a student already holds.
func TakenClassSet(taken []TakenCourse) map[string]struct{} {
	set := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		set[t.ClassID] = struct{}{}
	}
	return set
}

// IsDuplicate reports whether candidateClassID is already in taken. It must
// be evaluated before the new enrollment is written.
func IsDuplicate(taken map[string]struct{}, candidateClassID string) bool {
	_, ok := taken[candidateClassID]
	return ok
}
