package backtest_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/okian/comborank/internal/backtest"
	"github.com/okian/comborank/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func ladder(t *testing.T) *tier.Ladder {
	t.Helper()
	l, err := tier.NewLadder([]tier.Tier{
		{Name: "ge1", Label: "1星", Threshold: 1, Ranked: true, Columns: []string{"ge2"}},
		{Name: "ge2", Label: "2星", Threshold: 2, Ranked: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func setRows(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
}

func workbook(t *testing.T, prize [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", "draws"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("prize"); err != nil {
		t.Fatal(err)
	}
	setRows(t, f, "draws", [][]any{
		{"期數", "號碼1", "號碼2"},
		{"001", 1, 2},
		{"002", 3, 4},
		{"003", 1, 3},
		{"004", 2, 4},
	})
	setRows(t, f, "prize", prize)
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBacktester(t *testing.T) {
	Convey("Given a ranking sheet with two sections", t, func() {
		path := workbook(t, [][]any{
			{"號碼1", "號碼2", "1星", "未開", "最大差值", nil, "號碼1", "號碼2", "2星", "未開", "最大差值"},
			{1, 2, 9, 9, 9, nil, 1, 3, 9, 9, 9},
			{3, 4, 9, 9, 9},
			{nil, nil},
		})
		ctx := context.Background()
		b := backtest.New(path, ladder(t), backtest.WithUniverse(6))

		Convey("When it is backtested against four draws", func() {
			res, err := b.Run(ctx, "draws", "B:C", "prize")
			So(err, ShouldBeNil)

			Convey("Then sizes and sections are detected", func() {
				So(res.ComboSize, ShouldEqual, 2)
				So(res.Draws, ShouldEqual, 4)
				So(len(res.Sections), ShouldEqual, 2)
				So(res.Sections[1].Column, ShouldEqual, 7)
			})

			Convey("And each section counts its tier and columns", func() {
				So(res.Sections[0].Header, ShouldResemble, []string{"號碼1", "號碼2", "1星次數", "2星次數"})
				So(res.Sections[0].Rows, ShouldResemble, [][]int{{1, 2, 3, 1}, {3, 4, 3, 1}})
				So(res.Sections[1].Header, ShouldResemble, []string{"號碼1", "號碼2", "2星次數"})
				So(res.Sections[1].Rows, ShouldResemble, [][]int{{1, 3, 1}})
			})

			Convey("And the result sheet mirrors the layout", func() {
				So(b.Write(ctx, res), ShouldBeNil)

				f, err := excelize.OpenFile(path)
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				So(f.GetSheetList(), ShouldResemble, []string{"draws", "prize", backtest.ResultSheet})

				rows, err := f.GetRows(backtest.ResultSheet)
				So(err, ShouldBeNil)
				So(rows[0], ShouldResemble, []string{"號碼1", "號碼2", "1星次數", "2星次數", "", "", "號碼1", "號碼2", "2星次數"})
				So(rows[1], ShouldResemble, []string{"1", "2", "3", "1", "", "", "1", "3", "1"})
				So(rows[2][:4], ShouldResemble, []string{"3", "4", "3", "1"})
			})
		})
	})

	Convey("Given a ranking sheet with fewer sections than ranked tiers", t, func() {
		path := workbook(t, [][]any{{"號碼1", "號碼2", "1星"}, {1, 2, 3}})

		Convey("Then the run is refused", func() {
			_, err := backtest.New(path, ladder(t), backtest.WithUniverse(6)).Run(context.Background(), "draws", "B:C", "prize")
			So(errors.Is(err, backtest.ErrSectionMarkers), ShouldBeTrue)
		})
	})

	Convey("Given a ranking sheet without number headers", t, func() {
		path := workbook(t, [][]any{{"a", "b"}})

		Convey("Then the combination size cannot be detected", func() {
			_, err := backtest.New(path, ladder(t), backtest.WithUniverse(6)).Run(context.Background(), "draws", "B:C", "prize")
			So(errors.Is(err, backtest.ErrComboSize), ShouldBeTrue)
		})
	})
}

func TestResult_Grid(t *testing.T) {
	res := &backtest.Result{Sections: []backtest.Section{
		{Column: 1, Header: []string{"a", "b"}, Rows: [][]int{{1, 2}, {3, 4}}},
		{Column: 4, Header: []string{"c"}, Rows: [][]int{{5}}},
	}}
	grid := res.Grid()
	if len(grid) != 3 || len(grid[0]) != 4 {
		t.Fatalf("grid is %dx%d, want 3x4", len(grid), len(grid[0]))
	}
	if grid[0][3] != "c" || grid[1][3] != 5 || grid[2][3] != nil || grid[2][1] != 4 {
		t.Errorf("unexpected grid %v", grid)
	}
}
