// Package scoring computes per-tier hit statistics for candidates against
// the draw history.
package scoring

import (
	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/history"
	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
)

// Sink receives scored entries. topk.Accumulator is the production sink.
type Sink interface {
	Offer(e *model.RankedEntry)
}

// Scorer is the read-only scoring context shared by all workers.
type Scorer struct {
	draws  []combo.Mask
	ladder *tier.Ladder
	size   int
}

// New builds a Scorer over h and l. Neither is modified afterwards.
func New(h *history.History, l *tier.Ladder) *Scorer {
	return &Scorer{
		draws:  h.Masks(),
		ladder: l,
		size:   h.ComboSize(),
	}
}

// Draws returns T.
func (s *Scorer) Draws() int { return len(s.draws) }

// Ladder returns the tier ladder entries are scored under.
func (s *Scorer) Ladder() *tier.Ladder { return s.ladder }

// Score makes one pass over the history and returns the candidate's
// statistics under every tier.
//
// The pass only records how many draws shared each possible number of values
// and the last draw that did; tier counts are folded from that histogram.
func (s *Scorer) Score(m combo.Mask) model.RankedEntry {
	var (
		hist   [combo.MaxUniverse + 1]int32
		lastAt [combo.MaxUniverse + 1]int32
	)
	for i, d := range s.draws {
		n := m.Shared(d)
		hist[n]++
		lastAt[n] = int32(i + 1)
	}

	e := model.RankedEntry{Mask: m}
	for n := 0; n <= s.size; n++ {
		if hist[n] == 0 {
			continue
		}
		set := s.ladder.SatisfiedBy(n)
		for i := 0; set != 0; i, set = i+1, set>>1 {
			if set&1 == 0 {
				continue
			}
			e.Hits[i] += hist[n]
			if lastAt[n] > e.LastHit[i] {
				e.LastHit[i] = lastAt[n]
			}
		}
	}
	return e
}

// ScoreBatch scores every candidate of batch and offers it to sink.
func (s *Scorer) ScoreBatch(batch []combo.Mask, sink Sink) {
	for _, m := range batch {
		e := s.Score(m)
		sink.Offer(&e)
	}
}

// Profile is the full statistics of one candidate under one tier.
type Profile struct {
	model.ScoreRecord
	MaxGap int
}

// Profile scores m tier by tier, tracking MaxGap during the same pass. It is
// slower than Score and intended for validation and backtesting.
func (s *Scorer) Profile(m combo.Mask) []Profile {
	t := len(s.draws)
	out := make([]Profile, s.ladder.Len())
	prev := make([]int, s.ladder.Len())
	for idx, d := range s.draws {
		n := m.Shared(d)
		for i := range out {
			if !s.ladder.Tier(i).Satisfied(n) {
				continue
			}
			out[i].Hits++
			out[i].LastHit = idx + 1
			if g := idx + 1 - prev[i]; g > out[i].MaxGap {
				out[i].MaxGap = g
			}
			prev[i] = idx + 1
		}
	}
	for i := range out {
		if g := t + 1 - prev[i]; g > out[i].MaxGap {
			out[i].MaxGap = g
		}
		out[i].Recency = t - out[i].LastHit
	}
	return out
}
