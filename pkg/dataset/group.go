package dataset

import "sort"

// groupConsecutive sorts items by a string key and folds adjacent equal-key
// runs into groups. It is the single grouping primitive behind logical-file
// construction, dataset construction and replica dedup.
func groupConsecutive[T any](items []T, key func(T) string) [][]T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) < key(sorted[j])
	})

	var groups [][]T
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && key(sorted[j]) == key(sorted[i]) {
			j++
		}
		groups = append(groups, sorted[i:j])
		i = j
	}
	return groups
}
