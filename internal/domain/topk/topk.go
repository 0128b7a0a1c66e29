// Package topk maintains bounded best-of sets of scored candidates, one per
// ranked tier, and merges them.
//
// Every tier's ordering is total (it ends in the candidate's canonical
// value), so the retained set does not depend on the order entries were
// offered in or on how the candidate space was split between accumulators.
package topk

import (
	"fmt"

	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
)

// Accumulator holds one Heap per ranked tier. It is not safe for concurrent
// use; each worker owns one.
type Accumulator struct {
	ladder   *tier.Ladder
	capacity int
	heaps    []*Heap
	byTier   map[int]*Heap
}

// New returns an empty accumulator keeping capacity entries per ranked tier.
func New(l *tier.Ladder, capacity int) (*Accumulator, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	a := &Accumulator{
		ladder:   l,
		capacity: capacity,
		byTier:   make(map[int]*Heap, len(l.Ranked())),
	}
	for _, i := range l.Ranked() {
		h := newHeap(l, i, capacity)
		a.heaps = append(a.heaps, h)
		a.byTier[i] = h
	}
	return a, nil
}

// Offer presents e to every ranked tier.
func (a *Accumulator) Offer(e *model.RankedEntry) {
	for _, h := range a.heaps {
		h.Offer(e)
	}
}

// Capacity returns the per-tier bound.
func (a *Accumulator) Capacity() int { return a.capacity }

// Ladder returns the ladder the accumulator ranks under.
func (a *Accumulator) Ladder() *tier.Ladder { return a.ladder }

// Len returns the number of entries held for tier i.
func (a *Accumulator) Len(i int) int {
	if h, ok := a.byTier[i]; ok {
		return h.Len()
	}
	return 0
}

// Sorted returns tier i's entries best first, or nil if tier i is not ranked.
func (a *Accumulator) Sorted(i int) []model.RankedEntry {
	if h, ok := a.byTier[i]; ok {
		return h.Sorted()
	}
	return nil
}

// Evictions returns the displacements across all tiers.
func (a *Accumulator) Evictions() int64 {
	var n int64
	for _, h := range a.heaps {
		n += h.Evictions()
	}
	return n
}

// Merge reduces accumulators into a fresh one with the same ladder and
// capacity by offering it every entry they hold. Inputs are not modified.
func Merge(accs ...*Accumulator) (*Accumulator, error) {
	if len(accs) == 0 {
		return nil, fmt.Errorf("%w: nothing to merge", ErrIncompatible)
	}
	first := accs[0]
	for _, a := range accs[1:] {
		if a.ladder != first.ladder || a.capacity != first.capacity {
			return nil, fmt.Errorf("%w: ladder or capacity differ", ErrIncompatible)
		}
	}
	out, err := New(first.ladder, first.capacity)
	if err != nil {
		return nil, err
	}
	for _, a := range accs {
		for k, h := range a.heaps {
			dst := out.heaps[k]
			for j := range h.items {
				dst.Offer(&h.items[j])
			}
		}
	}
	return out, nil
}
