// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package set is an exceedingly simple 'set' implementation.
//
// It's not threadsafe, but can be used in place of a simple
// map[T]struct{}.
package set

import (
	"cmp"
	"slices"
)

// Set is the base type. make(Set) can be used too.
type Set[T cmp.Ordered] map[T]struct{}

// New returns a new Set implementation.
func New[T cmp.Ordered](sizeHint int) Set[T] {
	return make(Set[T], sizeHint)
}

// NewFromSlice returns a new Set implementation,
// initialized with the values in the provided slice.
func NewFromSlice[T cmp.Ordered](vals ...T) Set[T] {
	ret := make(Set[T], len(vals))
	for _, k := range vals {
		ret[k] = struct{}{}
	}
	return ret
}

// Has returns true iff the Set contains value.
func (s Set[T]) Has(value T) bool {
	_, ret := s[value]
	return ret
}

// Add ensures that Set contains value, and returns true if it was added (i.e.
// it returns false if the Set already contained the value).
func (s Set[T]) Add(value T) bool {
	if _, ok := s[value]; ok {
		return false
	}
	s[value] = struct{}{}
	return true
}

// AddAll ensures that Set contains all values.
func (s Set[T]) AddAll(values []T) {
	for _, value := range values {
		s[value] = struct{}{}
	}
}

// Len returns the number of items in this set.
func (s Set[T]) Len() int {
	return len(s)
}

// ToSlice renders this set to a slice of all values.
func (s Set[T]) ToSlice() []T {
	ret := make([]T, 0, len(s))
	for k := range s {
		ret = append(ret, k)
	}
	return ret
}

// ToSortedSlice renders this set to a sorted slice of all values, ascending.
func (s Set[T]) ToSortedSlice() []T {
	ret := s.ToSlice()
	slices.Sort(ret)
	return ret
}
