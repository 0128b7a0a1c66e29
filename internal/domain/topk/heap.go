package topk

import (
	"container/heap"
	"slices"

	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
)

// Heap keeps the best entries of one ranked tier. The root is the lowest
// ranked entry held, so a full heap decides admission with one comparison.
type Heap struct {
	ladder    *tier.Ladder
	tier      int
	capacity  int
	items     []model.RankedEntry
	evictions int64
}

// initialItems bounds the up-front reservation; items grow on demand past it.
const initialItems = 1024

func newHeap(l *tier.Ladder, tierIdx, capacity int) *Heap {
	return &Heap{
		ladder:   l,
		tier:     tierIdx,
		capacity: capacity,
		items:    make([]model.RankedEntry, 0, min(capacity, initialItems)),
	}
}

func (h *Heap) Len() int           { return len(h.items) }
func (h *Heap) Less(i, j int) bool { return h.ladder.Compare(h.tier, &h.items[i], &h.items[j]) < 0 }
func (h *Heap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Push implements heap.Interface. Use Offer.
func (h *Heap) Push(x any) { h.items = append(h.items, x.(model.RankedEntry)) }

// Pop implements heap.Interface.
func (h *Heap) Pop() any {
	n := len(h.items) - 1
	x := h.items[n]
	h.items = h.items[:n]
	return x
}

// Offer admits e if the heap has room or e ranks strictly above the lowest
// entry held, which is then evicted. It reports whether e was admitted.
func (h *Heap) Offer(e *model.RankedEntry) bool {
	if len(h.items) < h.capacity {
		heap.Push(h, *e)
		return true
	}
	if h.ladder.Compare(h.tier, e, &h.items[0]) <= 0 {
		return false
	}
	h.items[0] = *e
	heap.Fix(h, 0)
	h.evictions++
	return true
}

// Tier returns the ladder index this heap ranks by.
func (h *Heap) Tier() int { return h.tier }

// Evictions returns how many entries were displaced.
func (h *Heap) Evictions() int64 { return h.evictions }

// Sorted returns a copy of the entries, best first.
func (h *Heap) Sorted() []model.RankedEntry {
	out := slices.Clone(h.items)
	slices.SortFunc(out, func(a, b model.RankedEntry) int {
		return h.ladder.Compare(h.tier, &b, &a)
	})
	return out
}
