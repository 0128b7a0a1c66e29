// Package model contains domain models passed between pipeline stages.
package model

import "github.com/okian/comborank/internal/domain/combo"

// MaxTiers bounds the number of tiers a ladder may define. Per-tier
// statistics live in fixed arrays so entries stay plain values.
const MaxTiers = 8

// ScoreRecord is the score of one candidate under one tier.
type ScoreRecord struct {
	Hits    int // draws satisfying the tier predicate
	LastHit int // 1-based index of the most recent satisfying draw, 0 if none
	Recency int // T - LastHit, or T when the tier never matched
}

// RankedEntry is a candidate together with its scores under every tier of
// the ladder, indexed by the tier's position in the ladder.
type RankedEntry struct {
	Mask    combo.Mask
	Hits    [MaxTiers]int32
	LastHit [MaxTiers]int32
}

// Record returns the ScoreRecord of tier i against a history of length t.
func (e *RankedEntry) Record(i, t int) ScoreRecord {
	last := int(e.LastHit[i])
	return ScoreRecord{
		Hits:    int(e.Hits[i]),
		LastHit: last,
		Recency: t - last,
	}
}

// Survivor is a ranked entry that passed the gap filter for one tier.
type Survivor struct {
	Entry  RankedEntry
	MaxGap int
}
