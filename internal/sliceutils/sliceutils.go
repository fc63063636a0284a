// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package sliceutils

// ContainsValue reports whether the slice contains the value.
func ContainsValue[T comparable](slice []T, value T) bool {
	for _, entry := range slice {
		if entry == value {
			return true
		}
	}
	return false
}

// FindMatches returns every entry the predicate accepts.
func FindMatches[T any](slice []T, predicate func(T) bool) []T {
	matches := []T(nil)
	for _, entry := range slice {
		if predicate(entry) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// FindValueFunc returns the first entry the predicate accepts.
func FindValueFunc[T any](slice []T, predicate func(T) bool) (T, bool) {
	for _, entry := range slice {
		if predicate(entry) {
			return entry, true
		}
	}

	var zero T
	return zero, false
}
