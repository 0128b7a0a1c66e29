package topk_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/enumerate"
	"github.com/okian/comborank/internal/domain/history"
	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/scoring"
	"github.com/okian/comborank/internal/domain/tier"
	"github.com/okian/comborank/internal/domain/topk"
	. "github.com/smartystreets/goconvey/convey"
)

func ladder(t *testing.T) *tier.Ladder {
	t.Helper()
	l, err := tier.NewLadder([]tier.Tier{
		{Name: "ge1", Threshold: 1, Ranked: true, TieBreak: []string{"ge2"}},
		{Name: "ge2", Threshold: 2, Ranked: true, TieBreak: []string{"ge1"}},
		{Name: "eq2", Threshold: 2, Exact: true, Ranked: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// scoreAll scores every k-subset of [1, universe] against a seeded history.
func scoreAll(t *testing.T, l *tier.Ladder, seed uint64, draws, universe, size int) []model.RankedEntry {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, 1))
	rows := make([][]int, draws)
	for i := range rows {
		perm := r.Perm(universe)
		for j := 0; j < size; j++ {
			rows[i] = append(rows[i], perm[j]+1)
		}
	}
	h, _, err := history.Encode(rows, universe, size)
	if err != nil {
		t.Fatal(err)
	}
	s := scoring.New(h, l)
	e, err := enumerate.New(universe, size)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Next(enumerate.Batch{})
	out := make([]model.RankedEntry, 0, len(b.Masks))
	for _, m := range b.Masks {
		out = append(out, s.Score(m))
	}
	return out
}

// bruteForce sorts every entry under tier i and keeps the best capacity.
func bruteForce(l *tier.Ladder, entries []model.RankedEntry, i, capacity int) []model.RankedEntry {
	all := slices.Clone(entries)
	slices.SortFunc(all, func(a, b model.RankedEntry) int { return l.Compare(i, &b, &a) })
	if len(all) > capacity {
		all = all[:capacity]
	}
	return all
}

func TestAccumulator_Bound(t *testing.T) {
	Convey("Given an accumulator of capacity 3", t, func() {
		l := ladder(t)
		acc, err := topk.New(l, 3)
		So(err, ShouldBeNil)

		entries := scoreAll(t, l, 3, 20, 6, 2)
		for k := range entries {
			acc.Offer(&entries[k])
		}

		Convey("Then each ranked tier holds exactly 3 entries", func() {
			for _, i := range l.Ranked() {
				So(acc.Len(i), ShouldEqual, 3)
				So(acc.Sorted(i), ShouldResemble, bruteForce(l, entries, i, 3))
			}
		})

		Convey("And evictions are counted", func() {
			So(acc.Evictions(), ShouldBeGreaterThan, 0)
		})

		Convey("And unranked tiers hold nothing", func() {
			So(acc.Sorted(99), ShouldBeNil)
			So(acc.Len(99), ShouldEqual, 0)
		})
	})

	Convey("Given a full accumulator", t, func() {
		l, err := tier.NewLadder([]tier.Tier{{Name: "ge1", Threshold: 1, Ranked: true}})
		So(err, ShouldBeNil)
		acc, err := topk.New(l, 2)
		So(err, ShouldBeNil)

		a := model.RankedEntry{Mask: combo.FromNumbers(1, 2)}
		b := model.RankedEntry{Mask: combo.FromNumbers(3, 4)}
		a.Hits[0], b.Hits[0] = 5, 5
		acc.Offer(&a)
		acc.Offer(&b)

		Convey("When a lower entry is offered, it is rejected", func() {
			low := model.RankedEntry{Mask: combo.FromNumbers(5, 6)}
			low.Hits[0] = 4
			acc.Offer(&low)
			So(acc.Evictions(), ShouldEqual, 0)
			So(acc.Sorted(0), ShouldResemble, []model.RankedEntry{a, b})
		})

		Convey("When an equal-hits entry with a larger tuple is offered, it is rejected", func() {
			tie := model.RankedEntry{Mask: combo.FromNumbers(5, 6)}
			tie.Hits[0] = 5
			acc.Offer(&tie)
			So(acc.Evictions(), ShouldEqual, 0)
		})

		Convey("When a higher entry is offered, the lowest is evicted", func() {
			high := model.RankedEntry{Mask: combo.FromNumbers(5, 6)}
			high.Hits[0] = 6
			acc.Offer(&high)
			So(acc.Evictions(), ShouldEqual, 1)
			So(acc.Sorted(0), ShouldResemble, []model.RankedEntry{high, a})
		})
	})

	Convey("Given a capacity far above the candidates offered", t, func() {
		l := ladder(t)
		acc, err := topk.New(l, math.MaxInt/2)
		So(err, ShouldBeNil)

		Convey("When every pair of six is offered", func() {
			entries := scoreAll(t, l, 3, 8, 6, 2)
			for i := range entries {
				acc.Offer(&entries[i])
			}

			Convey("Then all are held without eviction", func() {
				So(acc.Capacity(), ShouldEqual, math.MaxInt/2)
				So(len(acc.Sorted(0)), ShouldEqual, len(entries))
				So(acc.Evictions(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a zero capacity", t, func() {
		_, err := topk.New(ladder(t), 0)
		So(errors.Is(err, topk.ErrInvalidCapacity), ShouldBeTrue)
	})
}

func TestMerge_MatchesBruteForce(t *testing.T) {
	cases := []struct {
		name              string
		universe, size, c int
	}{
		{"C(6,2)", 6, 2, 4},
		{"C(10,3)", 10, 3, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := ladder(t)
			entries := scoreAll(t, l, 11, 25, tc.universe, tc.size)
			r := rand.New(rand.NewPCG(99, 5))

			for trial := 0; trial < 20; trial++ {
				parts := 1 + r.IntN(5)
				accs := make([]*topk.Accumulator, parts)
				for p := range accs {
					acc, err := topk.New(l, tc.c)
					if err != nil {
						t.Fatal(err)
					}
					accs[p] = acc
				}
				order := r.Perm(len(entries))
				for _, k := range order {
					accs[r.IntN(parts)].Offer(&entries[k])
				}

				merged, err := topk.Merge(accs...)
				if err != nil {
					t.Fatal(err)
				}
				for _, i := range l.Ranked() {
					want := bruteForce(l, entries, i, tc.c)
					if got := merged.Sorted(i); !slices.Equal(got, want) {
						t.Fatalf("trial %d, tier %d, %d parts: merged top-k differs from brute force", trial, i, parts)
					}
				}
			}
		})
	}
}

func TestMerge_Associative(t *testing.T) {
	Convey("Given three accumulators over disjoint candidates", t, func() {
		l := ladder(t)
		entries := scoreAll(t, l, 5, 30, 10, 3)
		accs := make([]*topk.Accumulator, 3)
		for p := range accs {
			acc, err := topk.New(l, 6)
			So(err, ShouldBeNil)
			accs[p] = acc
		}
		for k := range entries {
			accs[k%3].Offer(&entries[k])
		}

		Convey("Then the grouping of merges does not matter", func() {
			ab, err := topk.Merge(accs[0], accs[1])
			So(err, ShouldBeNil)
			left, err := topk.Merge(ab, accs[2])
			So(err, ShouldBeNil)

			bc, err := topk.Merge(accs[1], accs[2])
			So(err, ShouldBeNil)
			right, err := topk.Merge(accs[0], bc)
			So(err, ShouldBeNil)

			flipped, err := topk.Merge(accs[2], accs[0], accs[1])
			So(err, ShouldBeNil)

			for _, i := range l.Ranked() {
				So(left.Sorted(i), ShouldResemble, right.Sorted(i))
				So(flipped.Sorted(i), ShouldResemble, left.Sorted(i))
			}
		})

		Convey("And the inputs are left untouched", func() {
			before := accs[0].Sorted(0)
			_, err := topk.Merge(accs...)
			So(err, ShouldBeNil)
			So(accs[0].Sorted(0), ShouldResemble, before)
		})
	})

	Convey("Given accumulators with different capacities", t, func() {
		l := ladder(t)
		a, _ := topk.New(l, 2)
		b, _ := topk.New(l, 3)

		Convey("Then merging is refused", func() {
			_, err := topk.Merge(a, b)
			So(errors.Is(err, topk.ErrIncompatible), ShouldBeTrue)
			_, err = topk.Merge()
			So(errors.Is(err, topk.ErrIncompatible), ShouldBeTrue)
		})
	})
}
