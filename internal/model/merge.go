package model

// Merge combines records from two independent sources.
//
// The result holds every element of primary in its original order, followed
// by the elements of secondary whose identity is not already present in the
// result. Duplicates inside secondary are therefore also collapsed to their
// first occurrence. Duplicates inside primary are kept as they are.
func Merge[R Record](primary, secondary []R) []R {
	result := make([]R, 0, len(primary)+len(secondary))
	seen := make(map[Identity]struct{}, len(primary)+len(secondary))

	for _, r := range primary {
		result = append(result, r)
		seen[r.Identity()] = struct{}{}
	}

	for _, r := range secondary {
		id := r.Identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, r)
	}

	return result
}
