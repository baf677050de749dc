// Package candidate holds the deduplicated, lexicographically ordered
// collection of candidate texts.
package candidate

import (
	"maps"
	"slices"
)

// Set is a unique string collection iterated in ascending byte order.
// It only grows. It is not safe for concurrent use.
type Set struct {
	items map[string]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{items: make(map[string]struct{})}
}

// Insert adds v and reports whether it was new.
func (s *Set) Insert(v string) bool {
	if _, ok := s.items[v]; ok {
		return false
	}
	s.items[v] = struct{}{}
	return true
}

// Len returns the number of unique values.
func (s *Set) Len() int { return len(s.items) }

// Sorted returns every value in ascending lexicographic byte order.
func (s *Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s.items))
}
