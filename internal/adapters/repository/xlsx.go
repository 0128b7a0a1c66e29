package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/comborank/internal/domain/report"
)

const (
	defaultSheet = "獲獎排列"
	scratchSheet = "__comborank_tmp"
)

// XLSXSource reads draw rows from a workbook.
type XLSXSource struct {
	path            string
	headerRow       bool
	defaultStartRow int
}

// NewXLSXSource returns a source reading the workbook at path.
func NewXLSXSource(path string, opts ...SourceOption) *XLSXSource {
	s := &XLSXSource{path: path, headerRow: true, defaultStartRow: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadRows implements Source.
func (s *XLSXSource) ReadRows(ctx context.Context, rangeSpec string) ([][]int, error) {
	r, err := ParseRange(rangeSpec)
	if err != nil {
		return nil, err
	}
	grid, err := s.ReadGrid(ctx, r.Sheet)
	if err != nil {
		return nil, err
	}

	first := r.FirstRow
	if first == 0 {
		first = s.defaultStartRow
	}
	if s.headerRow {
		first++
	}
	last := r.LastRow
	if last == 0 || last > len(grid) {
		last = len(grid)
	}

	rows := make([][]int, 0, max(last-first+1, 0))
	for i := first; i <= last; i++ {
		line := grid[i-1]
		row := make([]int, r.Width())
		for j := range row {
			if c := r.FirstCol - 1 + j; c < len(line) {
				row[j] = parseCell(line[c])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadGrid returns the raw cell text of a sheet; an empty name means the
// first sheet.
func (s *XLSXSource) ReadGrid(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheet, s.path)
	}
	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", s.path, sheet, err)
	}
	return grid, nil
}

// parseCell returns the integer value of a cell, or 0.
func parseCell(v string) int {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return int(f)
	}
	return 0
}

// XLSXSink writes report tables side by side into one sheet of a workbook.
type XLSXSink struct {
	path  string
	sheet string
	gap   int
}

// NewXLSXSink returns a sink writing to the workbook at path, creating it if
// needed.
func NewXLSXSink(path string, opts ...SinkOption) *XLSXSink {
	s := &XLSXSink{path: path, sheet: defaultSheet, gap: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write implements Sink. The output sheet is recreated on every call; other
// sheets are left alone.
func (s *XLSXSink) Write(ctx context.Context, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return editWorkbook(s.path, s.sheet, func(f *excelize.File) error {
		style, err := f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return err
		}
		col := 1
		for i := range r.Tables {
			t := &r.Tables[i]
			if err := s.writeTable(f, col, t, style); err != nil {
				return fmt.Errorf("table %s: %w", t.Tier, err)
			}
			col += t.Width() + s.gap
		}
		return nil
	})
}

func (s *XLSXSink) writeTable(f *excelize.File, col int, t *report.Table, style int) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := setRow(f, s.sheet, col, 1, header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if row == nil {
			continue
		}
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := setRow(f, s.sheet, col, i+2, cells); err != nil {
			return err
		}
	}
	from, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col+t.Width()-1, len(t.Rows)+1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(s.sheet, from, to, style)
}

// WriteGrid replaces sheet in the workbook at path with rows, starting at A1.
func WriteGrid(ctx context.Context, path, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return editWorkbook(path, sheet, func(f *excelize.File) error {
		for i, row := range rows {
			if err := setRow(f, sheet, 1, i+1, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func setRow(f *excelize.File, sheet string, col, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// editWorkbook opens or creates path, recreates sheet empty, lets fill
// populate it and saves.
func editWorkbook(path, sheet string, fill func(f *excelize.File) error) error {
	f, created, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	idx, err := replaceSheet(f, sheet)
	if err != nil {
		return fmt.Errorf("prepare sheet %q: %w", sheet, err)
	}
	if err := fill(f); err != nil {
		return err
	}
	if created && sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
		idx, _ = f.GetSheetIndex(sheet)
	}
	f.SetActiveSheet(idx)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func openOrCreate(path string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	return f, false, nil
}

// replaceSheet deletes sheet if present and creates it empty. A workbook
// cannot lose its last sheet, so a scratch sheet holds its place meanwhile.
func replaceSheet(f *excelize.File, sheet string) (int, error) {
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		scratch := len(f.GetSheetList()) == 1
		if scratch {
			if _, err := f.NewSheet(scratchSheet); err != nil {
				return 0, err
			}
		}
		if err := f.DeleteSheet(sheet); err != nil {
			return 0, err
		}
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return 0, err
		}
		if scratch {
			if err := f.DeleteSheet(scratchSheet); err != nil {
				return 0, err
			}
			return f.GetSheetIndex(sheet)
		}
		return idx, nil
	}
	return f.NewSheet(sheet)
}
