package tier_test

import (
	"errors"
	"testing"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTier_Satisfied(t *testing.T) {
	atLeast := tier.Tier{Name: "ge3", Threshold: 3}
	exactly := tier.Tier{Name: "eq3", Threshold: 3, Exact: true}

	for m := 0; m <= 6; m++ {
		if got, want := atLeast.Satisfied(m), m >= 3; got != want {
			t.Errorf("%s.Satisfied(%d) = %v, want %v", atLeast, m, got, want)
		}
		if got, want := exactly.Satisfied(m), m == 3; got != want {
			t.Errorf("%s.Satisfied(%d) = %v, want %v", exactly, m, got, want)
		}
	}
}

func TestNewLadder(t *testing.T) {
	Convey("Given the default ladder", t, func() {
		l, err := tier.NewLadder(tier.Default())
		So(err, ShouldBeNil)

		Convey("Then four tiers are ranked", func() {
			So(l.Len(), ShouldEqual, 6)
			So(l.Ranked(), ShouldResemble, []int{0, 1, 3, 5})
		})

		Convey("And keys start with the tier's own hits", func() {
			So(l.Key(0), ShouldResemble, []int{0, 1, 2})
			So(l.Key(1), ShouldResemble, []int{1, 2, 0})
			So(l.Key(3), ShouldResemble, []int{3})
		})

		Convey("And columns resolve to tier indices", func() {
			So(l.Columns(0), ShouldResemble, []int{1, 2, 4})
			So(l.Columns(5), ShouldBeEmpty)
		})

		Convey("And the satisfied table matches each predicate", func() {
			for m := 0; m <= 6; m++ {
				set := l.SatisfiedBy(m)
				for i := 0; i < l.Len(); i++ {
					So(set&(1<<uint(i)) != 0, ShouldEqual, l.Tier(i).Satisfied(m))
				}
			}
		})
	})

	Convey("Given invalid ladders", t, func() {
		cases := map[string][]tier.Tier{
			"empty":            nil,
			"unnamed":          {{Threshold: 2, Ranked: true}},
			"duplicate":        {{Name: "a", Threshold: 2, Ranked: true}, {Name: "a", Threshold: 3}},
			"zero threshold":   {{Name: "a", Threshold: 0, Ranked: true}},
			"unknown ref":      {{Name: "a", Threshold: 2, Ranked: true, TieBreak: []string{"b"}}},
			"self ref":         {{Name: "a", Threshold: 2, Ranked: true, Columns: []string{"a"}}},
			"repeated ref":     {{Name: "a", Threshold: 2, Ranked: true, TieBreak: []string{"b", "b"}}, {Name: "b", Threshold: 3}},
			"nothing ranked":   {{Name: "a", Threshold: 2}},
			"too many tiers":   make([]tier.Tier, model.MaxTiers+1),
		}
		for name, tiers := range cases {
			Convey("When the ladder is "+name, func() {
				_, err := tier.NewLadder(tiers)
				So(errors.Is(err, tier.ErrInvalidLadder), ShouldBeTrue)
			})
		}
	})

	Convey("Given a tier without a label", t, func() {
		l, err := tier.NewLadder([]tier.Tier{{Name: "ge2", Threshold: 2, Ranked: true}})
		So(err, ShouldBeNil)

		Convey("Then the name is used as label", func() {
			So(l.Tier(0).Label, ShouldEqual, "ge2")
		})
	})
}

func TestLadder_Compare(t *testing.T) {
	Convey("Given the default ladder", t, func() {
		l, err := tier.NewLadder(tier.Default())
		So(err, ShouldBeNil)

		a := &model.RankedEntry{Mask: combo.FromNumbers(1, 2, 3, 4, 5)}
		b := &model.RankedEntry{Mask: combo.FromNumbers(1, 2, 3, 4, 6)}

		Convey("When own hits differ", func() {
			a.Hits[0], b.Hits[0] = 10, 9
			So(l.Compare(0, a, b), ShouldBeGreaterThan, 0)
			So(l.Compare(0, b, a), ShouldBeLessThan, 0)
		})

		Convey("When own hits tie, the first tie-break decides", func() {
			a.Hits[0], b.Hits[0] = 10, 10
			a.Hits[1], b.Hits[1] = 2, 3
			So(l.Compare(0, a, b), ShouldBeLessThan, 0)
		})

		Convey("When all hits tie, the smaller tuple ranks higher", func() {
			So(l.Compare(0, a, b), ShouldBeGreaterThan, 0)
			So(l.Compare(0, b, a), ShouldBeLessThan, 0)
			So(l.Compare(0, a, a), ShouldEqual, 0)
		})

		Convey("When tiers outside the key differ, they are ignored", func() {
			b.Hits[5] = 4
			So(l.Compare(3, a, b), ShouldBeGreaterThan, 0)
		})
	})
}
