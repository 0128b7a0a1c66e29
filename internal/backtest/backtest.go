// Package backtest re-scores the combinations of a ranking sheet against a
// draw history, typically one the ranking was not computed from.
//
// The ranking sheet holds one section per ranked tier, side by side. A
// section starts at a header equal to the first number label; the number of
// consecutive number labels from column A gives the combination size.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"github.com/okian/comborank/internal/adapters/repository"
	"github.com/okian/comborank/internal/domain/history"
	"github.com/okian/comborank/internal/domain/report"
	"github.com/okian/comborank/internal/domain/scoring"
	"github.com/okian/comborank/internal/domain/tier"
	"github.com/okian/comborank/pkg/logger"
)

const (
	// ResultSheet is recreated on every Write.
	ResultSheet = "回測結果"

	defaultUniverse    = 39
	defaultCountSuffix = "次數"
	drawsStartRow      = 2
)

// Section is the backtest of one ranked tier.
type Section struct {
	Tier   string
	Column int // 1-based column of the section's first cell
	Header []string
	Rows   [][]int
}

// Result is a finished backtest.
type Result struct {
	ComboSize int
	Draws     int
	Sections  []Section
}

// Grid lays the sections out at their columns, headers on the first row.
func (r *Result) Grid() [][]any {
	width, height := 0, 1
	for _, s := range r.Sections {
		width = max(width, s.Column-1+len(s.Header))
		height = max(height, len(s.Rows)+1)
	}
	grid := make([][]any, height)
	for i := range grid {
		grid[i] = make([]any, width)
	}
	for _, s := range r.Sections {
		for j, h := range s.Header {
			grid[0][s.Column-1+j] = h
		}
		for i, row := range s.Rows {
			for j, v := range row {
				grid[i+1][s.Column-1+j] = v
			}
		}
	}
	return grid
}

// Backtester reads a ranking sheet and a draw sheet from one workbook.
type Backtester struct {
	path        string
	source      *repository.XLSXSource
	ladder      *tier.Ladder
	universe    int
	numberLabel string
	countSuffix string
	logger      logger.Logger
}

// New returns a Backtester for the workbook at path. Sections map to the
// ranked tiers of l in ladder order.
func New(path string, l *tier.Ladder, opts ...Option) *Backtester {
	b := &Backtester{
		path: path,
		source: repository.NewXLSXSource(path,
			repository.WithHeaderRow(false),
			repository.WithDefaultStartRow(drawsStartRow),
		),
		ladder:      l,
		universe:    defaultUniverse,
		numberLabel: report.DefaultNumberLabel,
		countSuffix: defaultCountSuffix,
		logger:      logger.Get().Named("backtest"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run scores every section of prizeSheet against the draws in
// drawsSheet!colRange. A range without a start row begins at row 2.
func (b *Backtester) Run(ctx context.Context, drawsSheet, colRange, prizeSheet string) (*Result, error) {
	grid, err := b.source.ReadGrid(ctx, prizeSheet)
	if err != nil {
		return nil, err
	}
	var header []string
	if len(grid) > 0 {
		header = grid[0]
	}

	k := b.comboSize(header)
	if k == 0 {
		return nil, fmt.Errorf("%w: %s has no %q header in column A", ErrComboSize, prizeSheet, b.label(1))
	}
	starts := b.sectionStarts(header)
	ranked := b.ladder.Ranked()
	if len(starts) < len(ranked) {
		return nil, fmt.Errorf("%w: %s has %d sections, %d ranked tiers need one each",
			ErrSectionMarkers, prizeSheet, len(starts), len(ranked))
	}
	b.logger.Info(ctx, "detected sections", logger.Int("combo_size", k), logger.Int("sections", len(starts)))

	rows, err := b.source.ReadRows(ctx, drawsSheet+"!"+colRange)
	if err != nil {
		return nil, fmt.Errorf("read draws: %w", err)
	}
	h, st, err := history.Encode(rows, b.universe, k)
	if err != nil {
		return nil, fmt.Errorf("encode draws: %w", err)
	}
	if st.Dropped > 0 {
		b.logger.Warn(ctx, "dropped malformed draws", logger.Int("dropped", st.Dropped))
	}
	scorer := scoring.New(h, b.ladder)

	res := &Result{ComboSize: k, Draws: h.Len(), Sections: make([]Section, 0, len(ranked))}
	for n, i := range ranked {
		sec, err := b.section(ctx, scorer, prizeSheet, starts[n], k, i)
		if err != nil {
			return nil, err
		}
		res.Sections = append(res.Sections, sec)
	}
	return res, nil
}

// Write replaces ResultSheet in the workbook with r.
func (b *Backtester) Write(ctx context.Context, r *Result) error {
	return repository.WriteGrid(ctx, b.path, ResultSheet, r.Grid())
}

func (b *Backtester) section(ctx context.Context, scorer *scoring.Scorer, sheet string, col, k, i int) (Section, error) {
	first, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return Section{}, err
	}
	last, err := excelize.ColumnNumberToName(col + k - 1)
	if err != nil {
		return Section{}, err
	}
	raw, err := b.source.ReadRows(ctx, fmt.Sprintf("%s!%s2:%s", sheet, first, last))
	if err != nil {
		return Section{}, fmt.Errorf("read section at %s: %w", first, err)
	}
	raw = lo.Filter(raw, func(row []int, _ int) bool {
		return lo.SomeBy(row, func(v int) bool { return v != 0 })
	})

	cols := b.ladder.Columns(i)
	sec := Section{
		Tier:   b.ladder.Tier(i).Name,
		Column: col,
		Header: make([]string, 0, k+1+len(cols)),
	}
	for j := 1; j <= k; j++ {
		sec.Header = append(sec.Header, b.label(j))
	}
	sec.Header = append(sec.Header, b.ladder.Tier(i).Label+b.countSuffix)
	for _, c := range cols {
		sec.Header = append(sec.Header, b.ladder.Tier(c).Label+b.countSuffix)
	}

	combos, _, err := history.Encode(raw, b.universe, k)
	if errors.Is(err, history.ErrEmptyHistory) {
		return sec, nil
	}
	if err != nil {
		return Section{}, err
	}
	for _, m := range combos.Masks() {
		e := scorer.Score(m)
		row := m.AppendNumbers(make([]int, 0, len(sec.Header)))
		row = append(row, int(e.Hits[i]))
		for _, c := range cols {
			row = append(row, int(e.Hits[c]))
		}
		sec.Rows = append(sec.Rows, row)
	}
	return sec, nil
}

func (b *Backtester) label(j int) string {
	return fmt.Sprintf(b.numberLabel, j)
}

func (b *Backtester) comboSize(header []string) int {
	k := 0
	for k < len(header) && header[k] == b.label(k+1) {
		k++
	}
	return k
}

func (b *Backtester) sectionStarts(header []string) []int {
	var out []int
	for j, v := range header {
		if v == b.label(1) {
			out = append(out, j+1)
		}
	}
	return out
}
