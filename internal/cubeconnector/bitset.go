package cubeconnector

import (
	"math/bits"
	"sync"
)

// atomicBitset is a small fixed-capacity (<=64 bits) bitset safe for
// concurrent use from both the radio-transport goroutine and the
// deferred-task goroutine (spec section 5: "taskWork and recycleQueue
// ... support atomic bit ops from either context").
//
// Real firmware implements Mark/Clear/ClearFirst as single instructions.
// On a hosted build a mutex-guarded integer is the sanctioned substitute
// (spec section 9, Design Notes) — the same tradeoff
// internal/bfd/discriminator.go makes for its allocation set.
type atomicBitset struct {
	mu   sync.Mutex
	bits uint64
}

// mark sets bit i. Used by non-atomic (single-goroutine) callers that
// already hold the exclusivity the ISR context implies; prefer
// atomicMark from a context that might race with the task goroutine.
func (b *atomicBitset) mark(i uint) {
	b.mu.Lock()
	b.bits |= 1 << i
	b.mu.Unlock()
}

// clear clears bit i.
func (b *atomicBitset) clear(i uint) {
	b.mu.Lock()
	b.bits &^= 1 << i
	b.mu.Unlock()
}

// atomicMark is an alias for mark: both are implemented with the same
// mutex-guarded primitive on a hosted build, but the name is kept
// distinct at call sites to mirror the firmware's ISR-vs-task naming
// (spec section 4.6, section 9).
func (b *atomicBitset) atomicMark(i uint) { b.mark(i) }

// atomicClear is an alias for clear; see atomicMark.
func (b *atomicBitset) atomicClear(i uint) { b.clear(i) }

// test reports whether bit i is set.
func (b *atomicBitset) test(i uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bits&(1<<i) != 0
}

// clearFirst finds the lowest set bit, clears it, and returns its index.
// Returns ok=false if the bitset is empty.
func (b *atomicBitset) clearFirst() (index uint, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bits == 0 {
		return 0, false
	}
	index = uint(bits.TrailingZeros64(b.bits))
	b.bits &^= 1 << index
	return index, true
}

// snapshot returns the current bitset value as one consistent
// point-in-time read. Task does not use it: it drains taskWork with
// clearFirst instead.
func (b *atomicBitset) snapshot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bits
}

// isEmpty reports whether no bits are set.
func (b *atomicBitset) isEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bits == 0
}
