// Package gap measures how regularly a candidate matched the history and
// filters short lists by a maximum-gap ceiling.
package gap

import (
	"fmt"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/history"
	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
)

// Order says whether the gap filter runs before or after the per-tier list
// is cut to its final length.
type Order string

const (
	// BeforeTruncate keeps an over-provisioned pool, filters it in rank
	// order and then cuts to top_n.
	BeforeTruncate Order = "before_truncate"
	// AfterTruncate cuts to top_n first; the filtered list may be shorter.
	AfterTruncate Order = "after_truncate"
)

// ParseOrder validates a configured order. Empty means BeforeTruncate.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", BeforeTruncate:
		return BeforeTruncate, nil
	case AfterTruncate:
		return AfterTruncate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
}

// Capacity returns the accumulator bound needed to produce topN rows.
func (o Order) Capacity(topN, poolFactor int) int {
	if o == AfterTruncate || poolFactor < 1 {
		return topN
	}
	return topN * poolFactor
}

// Analyzer recomputes MaxGap against the history.
type Analyzer struct {
	draws  []combo.Mask
	ladder *tier.Ladder
	limit  int
}

// New returns an Analyzer that admits MaxGap values up to limit.
func New(h *history.History, l *tier.Ladder, limit int) (*Analyzer, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return &Analyzer{draws: h.Masks(), ladder: l, limit: limit}, nil
}

// Limit returns the ceiling.
func (a *Analyzer) Limit() int { return a.limit }

// MaxGap returns the largest distance between consecutive draws satisfying
// tier i, counting virtual qualifying draws at 0 and T+1. A candidate that
// never qualified has MaxGap T+1.
func (a *Analyzer) MaxGap(m combo.Mask, i int) int {
	t := a.ladder.Tier(i)
	prev, best := 0, 0
	for idx, d := range a.draws {
		if !t.Satisfied(m.Shared(d)) {
			continue
		}
		if g := idx + 1 - prev; g > best {
			best = g
		}
		prev = idx + 1
	}
	if g := len(a.draws) + 1 - prev; g > best {
		best = g
	}
	return best
}

// Filter keeps entries whose MaxGap under tier i is within the limit, in
// their original order, stopping once n survivors are collected. n < 1
// means no bound.
func (a *Analyzer) Filter(entries []model.RankedEntry, i, n int) []model.Survivor {
	size := len(entries)
	if n > 0 && n < size {
		size = n
	}
	out := make([]model.Survivor, 0, size)
	for _, e := range entries {
		if n > 0 && len(out) == n {
			break
		}
		g := a.MaxGap(e.Mask, i)
		if g > a.limit {
			continue
		}
		out = append(out, model.Survivor{Entry: e, MaxGap: g})
	}
	return out
}

// Select applies order to a best-first list for tier i and returns at most
// topN survivors.
func (a *Analyzer) Select(sorted []model.RankedEntry, i, topN int, order Order) []model.Survivor {
	if order == AfterTruncate && len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return a.Filter(sorted, i, topN)
}
