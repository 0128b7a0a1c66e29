// Package history turns raw draw rows into an immutable sequence of bitsets.
package history

import (
	"fmt"

	"github.com/okian/comborank/internal/domain/combo"
)

// History is the chronologically ordered sequence of encoded draws.
// Index i of Masks is draw i+1. It is never mutated after Encode returns
// and is shared read-only by all scorers.
type History struct {
	masks    []combo.Mask
	universe int
	size     int
}

// EncodeStats summarizes what Encode did with the input rows.
type EncodeStats struct {
	Rows    int
	Kept    int
	Dropped int
}

// Encode converts rows of integer cells into a History.
//
// Values outside [1, universe] and repeats within a row are discarded. The
// first size distinct valid values of a row form the draw; a row with fewer
// than size valid values is dropped.
func Encode(rows [][]int, universe, size int) (*History, EncodeStats, error) {
	if err := combo.ValidateUniverse(universe, size); err != nil {
		return nil, EncodeStats{}, err
	}

	stats := EncodeStats{Rows: len(rows)}
	masks := make([]combo.Mask, 0, len(rows))
	for _, row := range rows {
		m, ok := encodeRow(row, universe, size)
		if !ok {
			stats.Dropped++
			continue
		}
		masks = append(masks, m)
	}
	stats.Kept = len(masks)

	if len(masks) == 0 {
		return nil, stats, fmt.Errorf("%w: %d rows, none with %d valid values", ErrEmptyHistory, stats.Rows, size)
	}
	return &History{masks: masks, universe: universe, size: size}, stats, nil
}

func encodeRow(row []int, universe, size int) (combo.Mask, bool) {
	var m combo.Mask
	n := 0
	for _, v := range row {
		if v < 1 || v > universe {
			continue
		}
		bit := combo.FromNumbers(v)
		if m&bit != 0 {
			continue
		}
		m |= bit
		n++
		if n == size {
			return m, true
		}
	}
	return 0, false
}

// FromMasks builds a History directly from already encoded draws.
func FromMasks(masks []combo.Mask, universe, size int) (*History, error) {
	if err := combo.ValidateUniverse(universe, size); err != nil {
		return nil, err
	}
	if len(masks) == 0 {
		return nil, ErrEmptyHistory
	}
	for i, m := range masks {
		if m.Len() != size {
			return nil, fmt.Errorf("%w: draw %d has %d values, want %d", ErrMalformedDraw, i+1, m.Len(), size)
		}
	}
	out := make([]combo.Mask, len(masks))
	copy(out, masks)
	return &History{masks: out, universe: universe, size: size}, nil
}

// Len returns T, the number of draws.
func (h *History) Len() int { return len(h.masks) }

// Universe returns the universe size the draws were encoded against.
func (h *History) Universe() int { return h.universe }

// ComboSize returns the number of values per draw.
func (h *History) ComboSize() int { return h.size }

// Masks exposes the encoded draws. Callers must not modify the slice.
func (h *History) Masks() []combo.Mask { return h.masks }

// Draw returns draw i (1-based).
func (h *History) Draw(i int) combo.Mask { return h.masks[i-1] }

// Decode returns the values of draw i (1-based) in ascending order.
func (h *History) Decode(i int) []int { return h.masks[i-1].Numbers() }
