// Package arena provides slot storage for archive state: a fixed pool of
// pre-sized slots with a free list, falling back to individually heap-owned
// values when the pool is exhausted. Ownership of each slot travels through
// an explicit Ref discriminant rather than address-range comparisons, so
// release logic never inspects pointers.
//
// Arena instances are not thread-safe; the registry serializes access.
package arena

import "errors"

var (
	// ErrNilRef indicates a release of the zero Ref.
	ErrNilRef = errors.New("arena: release of nil ref")

	// ErrBadRef indicates a Ref whose pool index is out of bounds.
	ErrBadRef = errors.New("arena: bad slot reference")

	// ErrNotHeld indicates a release of a pool slot that is already free.
	ErrNotHeld = errors.New("arena: slot is not held")
)

// heapRef marks a Ref as individually heap-owned rather than pool-backed.
const heapRef = -1

// Ref is the ownership token for one acquired slot. It records whether the
// value lives in the pool (and where) or on the heap.
type Ref[T any] struct {
	val  *T
	pool int
}

// Value returns the slot's value pointer, or nil for the zero Ref.
func (r Ref[T]) Value() *T { return r.val }

// FromPool reports whether the slot is backed by the pre-sized pool.
func (r Ref[T]) FromPool() bool { return r.pool >= 0 }

// Arena hands out slots of T, preferring the fixed pool.
type Arena[T any] struct {
	slots []T
	held  []bool
	free  []int // LIFO free list of pool indexes
}

// New creates an arena with poolSize pre-sized slots.
func New[T any](poolSize int) *Arena[T] {
	if poolSize < 0 {
		poolSize = 0
	}
	a := &Arena[T]{
		slots: make([]T, poolSize),
		held:  make([]bool, poolSize),
		free:  make([]int, 0, poolSize),
	}
	for i := poolSize - 1; i >= 0; i-- {
		a.free = append(a.free, i)
	}
	return a
}

// Acquire returns a free slot. Pool slots are zeroed before reuse so a new
// acquisition never observes state from a previous occupant. When the pool
// is exhausted the slot is heap-allocated; the Ref records which.
func (a *Arena[T]) Acquire() Ref[T] {
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		a.held[i] = true
		var zero T
		a.slots[i] = zero
		return Ref[T]{val: &a.slots[i], pool: i}
	}
	return Ref[T]{val: new(T), pool: heapRef}
}

// Release returns a pool slot to the free list or drops a heap slot for the
// collector. Releasing the same pool slot twice reports ErrNotHeld.
func (a *Arena[T]) Release(r Ref[T]) error {
	if r.val == nil {
		return ErrNilRef
	}
	if r.pool == heapRef {
		return nil
	}
	if r.pool < 0 || r.pool >= len(a.slots) {
		return ErrBadRef
	}
	if !a.held[r.pool] {
		return ErrNotHeld
	}
	a.held[r.pool] = false
	a.free = append(a.free, r.pool)
	return nil
}

// PoolSize returns the fixed pool capacity.
func (a *Arena[T]) PoolSize() int { return len(a.slots) }

// PoolFree returns how many pool slots are currently available.
func (a *Arena[T]) PoolFree() int { return len(a.free) }
