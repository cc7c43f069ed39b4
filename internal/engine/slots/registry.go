// Package slots provides fixed-capacity slot allocation.
//
// A Registry maps entities to stable integer indices. Indices stay valid
// until explicitly released and are handed out lowest-first, so the same
// sequence of calls always yields the same indices.
package slots

import "errors"

// ErrCapacityExceeded is returned when every slot is occupied.
var ErrCapacityExceeded = errors.New("slot capacity exceeded")

// Registry is a fixed-capacity array of optional entity references.
type Registry[T comparable] struct {
	entries []T
	used    []bool
	count   int
}

// New creates a registry with the given number of slots.
func New[T comparable](capacity int) *Registry[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry[T]{
		entries: make([]T, capacity),
		used:    make([]bool, capacity),
	}
}

// Allocate stores v in the first free slot and returns its index.
// Returns ErrCapacityExceeded when no slot is free; v stays unattached.
func (r *Registry[T]) Allocate(v T) (int, error) {
	for i, inUse := range r.used {
		if !inUse {
			r.entries[i] = v
			r.used[i] = true
			r.count++
			return i, nil
		}
	}
	return -1, ErrCapacityExceeded
}

// Release clears the slot at index. Out-of-range or empty slots are ignored.
// The caller must drop every outstanding reference to the index first.
func (r *Registry[T]) Release(index int) {
	if index < 0 || index >= len(r.used) || !r.used[index] {
		return
	}
	var zero T
	r.entries[index] = zero
	r.used[index] = false
	r.count--
}

// Get returns the entity stored at index.
func (r *Registry[T]) Get(index int) (T, bool) {
	if index < 0 || index >= len(r.used) || !r.used[index] {
		var zero T
		return zero, false
	}
	return r.entries[index], true
}

// IndexOf returns the slot holding v, or -1.
func (r *Registry[T]) IndexOf(v T) int {
	for i, inUse := range r.used {
		if inUse && r.entries[i] == v {
			return i
		}
	}
	return -1
}

// Cap returns the number of slots.
func (r *Registry[T]) Cap() int {
	return len(r.used)
}

// Len returns the number of occupied slots.
func (r *Registry[T]) Len() int {
	return r.count
}

// Free returns the number of unoccupied slots.
func (r *Registry[T]) Free() int {
	return len(r.used) - r.count
}

// Each calls fn for every occupied slot in ascending index order.
func (r *Registry[T]) Each(fn func(index int, v T)) {
	for i, inUse := range r.used {
		if inUse {
			fn(i, r.entries[i])
		}
	}
}
