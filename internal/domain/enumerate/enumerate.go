// Package enumerate produces every k-subset of [1, n] exactly once, in
// lexicographic order, a batch at a time.
//
// The full candidate space is never materialized: the enumerator keeps only
// the current combination, and callers hand the same Batch buffer back on
// every call.
package enumerate

import (
	"fmt"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/okian/comborank/internal/domain/combo"
)

const defaultBatchSize = 100000

// Batch is a contiguous run of candidates.
type Batch struct {
	// Seq numbers batches from 0 in emission order. Used for logging only.
	Seq   int
	Masks []combo.Mask
}

// Enumerator walks C(n, k) lazily.
type Enumerator struct {
	gen       *combin.CombinationGenerator
	n, k      int
	batchSize int
	total     int
	emitted   int
	seq       int
	idx       []int
}

// New returns an Enumerator positioned before the first combination.
func New(universe, size int, opts ...Option) (*Enumerator, error) {
	if err := combo.ValidateUniverse(universe, size); err != nil {
		return nil, err
	}
	e := &Enumerator{
		n:         universe,
		k:         size,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.batchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, e.batchSize)
	}
	e.gen = combin.NewCombinationGenerator(universe, size)
	e.total = combin.Binomial(universe, size)
	e.idx = make([]int, size)
	return e, nil
}

// Total returns C(n, k).
func (e *Enumerator) Total() int { return e.total }

// Emitted returns how many candidates have been produced so far.
func (e *Enumerator) Emitted() int { return e.emitted }

// BatchSize returns the configured batch size.
func (e *Enumerator) BatchSize() int { return e.batchSize }

// Next fills dst with up to BatchSize candidates, reusing its backing array,
// and returns it. The boolean is false once the space is exhausted, in which
// case the returned batch is empty.
func (e *Enumerator) Next(dst Batch) (Batch, bool) {
	dst.Masks = dst.Masks[:0]
	for len(dst.Masks) < e.batchSize && e.gen.Next() {
		e.idx = e.gen.Combination(e.idx)
		var m combo.Mask
		for _, i := range e.idx {
			m |= 1 << uint(i)
		}
		dst.Masks = append(dst.Masks, m)
	}
	if len(dst.Masks) == 0 {
		return dst, false
	}
	dst.Seq = e.seq
	e.seq++
	e.emitted += len(dst.Masks)
	return dst, true
}
