// Package tier defines match-strength tiers and the ladder that orders them.
//
// A tier is a predicate over the number of values a candidate shares with a
// draw: "at least Threshold" or, when Exact, "exactly Threshold". A ladder is
// the configured set of tiers. Ranked tiers get their own top-K list, ordered
// by a composite key: own hits, then the hits of the TieBreak tiers in order,
// then the candidate's canonical value.
package tier

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/model"
)

// Tier is one match-strength predicate.
type Tier struct {
	Name      string
	Label     string
	Threshold int
	Exact     bool
	Ranked    bool
	TieBreak  []string
	Columns   []string
}

// Satisfied reports whether a draw sharing matches values qualifies.
func (t Tier) Satisfied(matches int) bool {
	if t.Exact {
		return matches == t.Threshold
	}
	return matches >= t.Threshold
}

// String renders the predicate, e.g. ">=3" or "==4".
func (t Tier) String() string {
	if t.Exact {
		return fmt.Sprintf("==%d", t.Threshold)
	}
	return fmt.Sprintf(">=%d", t.Threshold)
}

// Ladder is a validated, immutable set of tiers.
type Ladder struct {
	tiers   []Tier
	index   map[string]int
	ranked  []int
	keys    [][]int
	columns [][]int
	// satisfied[m] has bit i set when tier i accepts m shared values.
	satisfied [combo.MaxUniverse + 1]uint8
}

// NewLadder validates tiers and resolves name references.
func NewLadder(tiers []Tier) (*Ladder, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidLadder)
	}
	if len(tiers) > model.MaxTiers {
		return nil, fmt.Errorf("%w: %d tiers, at most %d supported", ErrInvalidLadder, len(tiers), model.MaxTiers)
	}

	names := lo.Map(tiers, func(t Tier, _ int) string { return strings.TrimSpace(t.Name) })
	if lo.Contains(names, "") {
		return nil, fmt.Errorf("%w: tier without a name", ErrInvalidLadder)
	}
	if dup := lo.FindDuplicates(names); len(dup) > 0 {
		return nil, fmt.Errorf("%w: duplicate tier names %v", ErrInvalidLadder, dup)
	}

	l := &Ladder{
		tiers:   make([]Tier, len(tiers)),
		index:   make(map[string]int, len(tiers)),
		keys:    make([][]int, len(tiers)),
		columns: make([][]int, len(tiers)),
	}
	for i, t := range tiers {
		t.Name = names[i]
		if t.Label == "" {
			t.Label = t.Name
		}
		if t.Threshold < 1 || t.Threshold > combo.MaxUniverse {
			return nil, fmt.Errorf("%w: tier %q threshold %d outside [1, %d]", ErrInvalidLadder, t.Name, t.Threshold, combo.MaxUniverse)
		}
		l.tiers[i] = t
		l.index[t.Name] = i
	}

	for i, t := range l.tiers {
		tb, err := l.resolve(t, "tie_break", t.TieBreak)
		if err != nil {
			return nil, err
		}
		cols, err := l.resolve(t, "columns", t.Columns)
		if err != nil {
			return nil, err
		}
		l.keys[i] = append([]int{i}, tb...)
		l.columns[i] = cols
		if t.Ranked {
			l.ranked = append(l.ranked, i)
		}
		for m := range l.satisfied {
			if t.Satisfied(m) {
				l.satisfied[m] |= 1 << uint(i)
			}
		}
	}
	if len(l.ranked) == 0 {
		return nil, fmt.Errorf("%w: no ranked tier", ErrInvalidLadder)
	}
	return l, nil
}

func (l *Ladder) resolve(t Tier, field string, refs []string) ([]int, error) {
	if dup := lo.FindDuplicates(refs); len(dup) > 0 {
		return nil, fmt.Errorf("%w: tier %q %s repeats %v", ErrInvalidLadder, t.Name, field, dup)
	}
	out := make([]int, 0, len(refs))
	for _, name := range refs {
		j, ok := l.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: tier %q %s references unknown tier %q", ErrInvalidLadder, t.Name, field, name)
		}
		if name == t.Name {
			return nil, fmt.Errorf("%w: tier %q %s references itself", ErrInvalidLadder, t.Name, field)
		}
		out = append(out, j)
	}
	return out, nil
}

// Len returns the number of tiers.
func (l *Ladder) Len() int { return len(l.tiers) }

// Tier returns tier i.
func (l *Ladder) Tier(i int) Tier { return l.tiers[i] }

// Index looks a tier up by name.
func (l *Ladder) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Ranked returns the indices of ranked tiers in ladder order.
func (l *Ladder) Ranked() []int { return l.ranked }

// Key returns the tier indices whose hits form tier i's ranking key, own tier first.
func (l *Ladder) Key(i int) []int { return l.keys[i] }

// Columns returns the tier indices reported after tier i's own hits.
func (l *Ladder) Columns(i int) []int { return l.columns[i] }

// SatisfiedBy returns the bitset of tiers accepting matches shared values.
func (l *Ladder) SatisfiedBy(matches int) uint8 { return l.satisfied[matches] }

// Compare orders two entries under ranked tier i. It returns a positive
// number when a ranks above b, negative when below and zero only when both
// hold the same candidate.
func (l *Ladder) Compare(i int, a, b *model.RankedEntry) int {
	for _, k := range l.keys[i] {
		if a.Hits[k] != b.Hits[k] {
			if a.Hits[k] > b.Hits[k] {
				return 1
			}
			return -1
		}
	}
	switch {
	case a.Mask == b.Mask:
		return 0
	case a.Mask.Before(b.Mask):
		return 1
	default:
		return -1
	}
}

// Default returns the four ranked tiers of the classic 39-ball ladder:
// at least 2, at least 3, exactly 4 and exactly 5 shared numbers, with the
// at-least-4 and at-least-5 counts carried as report columns.
func Default() []Tier {
	return []Tier{
		{Name: "ge2", Label: "2星", Threshold: 2, Ranked: true, TieBreak: []string{"ge3", "ge4"}, Columns: []string{"ge3", "ge4", "ge5"}},
		{Name: "ge3", Label: "3星", Threshold: 3, Ranked: true, TieBreak: []string{"ge4", "ge2"}, Columns: []string{"ge4", "ge5"}},
		{Name: "ge4", Label: "4星", Threshold: 4},
		{Name: "eq4", Label: "4星", Threshold: 4, Exact: true, Ranked: true, Columns: []string{"ge5"}},
		{Name: "ge5", Label: "5星", Threshold: 5},
		{Name: "eq5", Label: "5星", Threshold: 5, Exact: true, Ranked: true},
	}
}
