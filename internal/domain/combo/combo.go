// Package combo encodes number sets drawn from a bounded universe as bitsets.
//
// Value v in [1, MaxUniverse] maps to bit v-1 of a Mask. Draws and candidates
// share the encoding, so the number of shared values between a candidate and
// a draw is a single popcount of their intersection.
package combo

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxUniverse is the largest universe a Mask can represent.
const MaxUniverse = 64

// Mask is a set of values in [1, MaxUniverse].
type Mask uint64

// FromNumbers builds a Mask from values. Values outside [1, MaxUniverse] are ignored.
func FromNumbers(nums ...int) Mask {
	var m Mask
	for _, v := range nums {
		if v >= 1 && v <= MaxUniverse {
			m |= 1 << uint(v-1)
		}
	}
	return m
}

// Has reports whether v is in the set.
func (m Mask) Has(v int) bool {
	if v < 1 || v > MaxUniverse {
		return false
	}
	return m&(1<<uint(v-1)) != 0
}

// Len returns the cardinality of the set.
func (m Mask) Len() int { return bits.OnesCount64(uint64(m)) }

// Shared returns the number of values present in both sets.
func (m Mask) Shared(o Mask) int { return bits.OnesCount64(uint64(m & o)) }

// Numbers returns the values in ascending order.
func (m Mask) Numbers() []int {
	return m.AppendNumbers(make([]int, 0, m.Len()))
}

// AppendNumbers appends the values in ascending order to dst.
func (m Mask) AppendNumbers(dst []int) []int {
	for x := uint64(m); x != 0; x &= x - 1 {
		dst = append(dst, bits.TrailingZeros64(x)+1)
	}
	return dst
}

// Before reports whether m sorts before o when both are compared as
// ascending tuples of their values. Sets of equal size only.
//
// The lowest value present in exactly one of the sets decides: the set
// holding it has the smaller tuple.
func (m Mask) Before(o Mask) bool {
	d := uint64(m ^ o)
	if d == 0 {
		return false
	}
	low := d & -d
	return uint64(m)&low != 0
}

// String renders the set as "{1 5 17}".
func (m Mask) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range m.Numbers() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('}')
	return b.String()
}

// ValidateUniverse checks that a universe/combo size pair is representable.
func ValidateUniverse(universe, size int) error {
	if universe < 1 || universe > MaxUniverse {
		return fmt.Errorf("%w: universe size %d outside [1, %d]", ErrInvalidUniverse, universe, MaxUniverse)
	}
	if size < 1 || size > universe {
		return fmt.Errorf("%w: combo size %d outside [1, %d]", ErrInvalidUniverse, size, universe)
	}
	return nil
}
