package gap_test

import (
	"errors"
	"testing"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/gap"
	"github.com/okian/comborank/internal/domain/history"
	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func fixture(t *testing.T, limit int) (*gap.Analyzer, *tier.Ladder) {
	t.Helper()
	h, err := history.FromMasks([]combo.Mask{
		combo.FromNumbers(1, 2),
		combo.FromNumbers(3, 4),
		combo.FromNumbers(1, 3),
		combo.FromNumbers(2, 4),
	}, 6, 2)
	if err != nil {
		t.Fatal(err)
	}
	l, err := tier.NewLadder([]tier.Tier{
		{Name: "ge1", Threshold: 1, Ranked: true},
		{Name: "ge2", Threshold: 2, Ranked: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	a, err := gap.New(h, l, limit)
	if err != nil {
		t.Fatal(err)
	}
	return a, l
}

func entries(masks ...combo.Mask) []model.RankedEntry {
	out := make([]model.RankedEntry, len(masks))
	for i, m := range masks {
		out[i].Mask = m
	}
	return out
}

func TestAnalyzer_MaxGap(t *testing.T) {
	Convey("Given four draws", t, func() {
		a, _ := fixture(t, 10)

		Convey("Then {1,2} under at least two has gaps 1 and 4", func() {
			So(a.MaxGap(combo.FromNumbers(1, 2), 1), ShouldEqual, 4)
		})

		Convey("And {1,2} under at least one matches draws 1, 3 and 4", func() {
			So(a.MaxGap(combo.FromNumbers(1, 2), 0), ShouldEqual, 2)
		})

		Convey("And a candidate matching the last draw has a trailing gap of one", func() {
			So(a.MaxGap(combo.FromNumbers(2, 4), 1), ShouldEqual, 4)
		})

		Convey("And a candidate that never matched has gap T+1", func() {
			So(a.MaxGap(combo.FromNumbers(5, 6), 0), ShouldEqual, 5)
			So(a.MaxGap(combo.FromNumbers(1, 5), 1), ShouldEqual, 5)
		})
	})
}

func TestAnalyzer_Filter(t *testing.T) {
	Convey("Given a ceiling of 2 under at least one", t, func() {
		a, _ := fixture(t, 2)
		list := entries(
			combo.FromNumbers(5, 6), // gap 5
			combo.FromNumbers(1, 2), // gap 2
			combo.FromNumbers(2, 5), // draws 1, 4: gap 3
			combo.FromNumbers(1, 4), // draws 1..4: gap 1
			combo.FromNumbers(2, 3), // draws 1..4: gap 1
		)

		Convey("When filtering without a bound", func() {
			got := a.Filter(list, 0, 0)

			Convey("Then survivors keep rank order and carry their gap", func() {
				So(len(got), ShouldEqual, 3)
				So(got[0], ShouldResemble, model.Survivor{Entry: list[1], MaxGap: 2})
				So(got[1], ShouldResemble, model.Survivor{Entry: list[3], MaxGap: 1})
				So(got[2], ShouldResemble, model.Survivor{Entry: list[4], MaxGap: 1})
			})
		})

		Convey("When filtering before truncation to 2", func() {
			got := a.Select(list, 0, 2, gap.BeforeTruncate)

			Convey("Then the pool refills the list", func() {
				So(len(got), ShouldEqual, 2)
				So(got[1].Entry.Mask, ShouldEqual, combo.FromNumbers(1, 4))
			})
		})

		Convey("When filtering after truncation to 2", func() {
			got := a.Select(list, 0, 2, gap.AfterTruncate)

			Convey("Then the list shrinks", func() {
				So(len(got), ShouldEqual, 1)
				So(got[0].Entry.Mask, ShouldEqual, combo.FromNumbers(1, 2))
			})
		})
	})
}

func TestOrder(t *testing.T) {
	Convey("Given configured filter orders", t, func() {
		o, err := gap.ParseOrder("")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, gap.BeforeTruncate)

		o, err = gap.ParseOrder("after_truncate")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, gap.AfterTruncate)

		_, err = gap.ParseOrder("sideways")
		So(errors.Is(err, gap.ErrInvalidOrder), ShouldBeTrue)

		Convey("Then only before truncation over-provisions", func() {
			So(gap.BeforeTruncate.Capacity(200, 5), ShouldEqual, 1000)
			So(gap.BeforeTruncate.Capacity(200, 0), ShouldEqual, 200)
			So(gap.AfterTruncate.Capacity(200, 5), ShouldEqual, 200)
		})
	})
}

func TestNew_RejectsLimit(t *testing.T) {
	h, _ := history.FromMasks([]combo.Mask{combo.FromNumbers(1, 2)}, 6, 2)
	l, _ := tier.NewLadder([]tier.Tier{{Name: "ge1", Threshold: 1, Ranked: true}})
	if _, err := gap.New(h, l, 0); !errors.Is(err, gap.ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}
