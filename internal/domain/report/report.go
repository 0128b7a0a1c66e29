// Package report shapes gap-filtered survivors into fixed-size tables.
package report

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"

	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/tier"
)

// Default column headers.
const (
	DefaultNumberLabel  = "號碼%d"
	DefaultRecencyLabel = "未開"
	DefaultMaxGapLabel  = "最大差值"
)

// Table is the output of one ranked tier. Rows has exactly TopN elements;
// the first Filled are survivors in rank order and the rest are nil.
type Table struct {
	Tier   string
	Label  string
	Header []string
	Rows   [][]int
	Filled int
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.Header) }

// Report is the result of a run.
type Report struct {
	RunID     string
	Draws     int
	ComboSize int
	Tables    []Table
	// Digest identifies the table contents; identical inputs and
	// configuration give identical digests.
	Digest uint64
}

// Assembler builds tables for a fixed ladder, combo size and row count.
type Assembler struct {
	ladder       *tier.Ladder
	comboSize    int
	topN         int
	numberLabel  string
	recencyLabel string
	maxGapLabel  string
}

// New returns an Assembler producing topN rows per table.
func New(l *tier.Ladder, comboSize, topN int, opts ...Option) *Assembler {
	a := &Assembler{
		ladder:       l,
		comboSize:    comboSize,
		topN:         topN,
		numberLabel:  DefaultNumberLabel,
		recencyLabel: DefaultRecencyLabel,
		maxGapLabel:  DefaultMaxGapLabel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Header returns the column headers of tier i's table.
func (a *Assembler) Header(i int) []string {
	h := make([]string, 0, a.comboSize+len(a.ladder.Columns(i))+3)
	for j := 1; j <= a.comboSize; j++ {
		h = append(h, fmt.Sprintf(a.numberLabel, j))
	}
	h = append(h, a.ladder.Tier(i).Label)
	h = append(h, lo.Map(a.ladder.Columns(i), func(c int, _ int) string {
		return a.ladder.Tier(c).Label
	})...)
	return append(h, a.recencyLabel, a.maxGapLabel)
}

// Table builds tier i's table from its survivors against a history of
// draws draws. Survivors beyond topN are an error of the caller and are
// kept, never silently dropped.
func (a *Assembler) Table(i int, survivors []model.Survivor, draws int) Table {
	t := Table{
		Tier:   a.ladder.Tier(i).Name,
		Label:  a.ladder.Tier(i).Label,
		Header: a.Header(i),
		Rows:   make([][]int, 0, max(a.topN, len(survivors))),
		Filled: len(survivors),
	}
	cols := a.ladder.Columns(i)
	for k := range survivors {
		s := &survivors[k]
		row := s.Entry.Mask.AppendNumbers(make([]int, 0, len(t.Header)))
		row = append(row, int(s.Entry.Hits[i]))
		for _, c := range cols {
			row = append(row, int(s.Entry.Hits[c]))
		}
		row = append(row, s.Entry.Record(i, draws).Recency, s.MaxGap)
		t.Rows = append(t.Rows, row)
	}
	for len(t.Rows) < a.topN {
		t.Rows = append(t.Rows, nil)
	}
	return t
}

// Assemble builds one table per ranked tier in ladder order.
func (a *Assembler) Assemble(runID string, draws int, survivors map[int][]model.Survivor) *Report {
	r := &Report{
		RunID:     runID,
		Draws:     draws,
		ComboSize: a.comboSize,
		Tables:    make([]Table, 0, len(a.ladder.Ranked())),
	}
	for _, i := range a.ladder.Ranked() {
		r.Tables = append(r.Tables, a.Table(i, survivors[i], draws))
	}
	r.Digest = Digest(r.Tables)
	return r
}

// Digest hashes the rendered contents of tables.
func Digest(tables []Table) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 256)
	for _, t := range tables {
		buf = append(buf[:0], t.Tier...)
		buf = append(buf, '\n')
		for _, h := range t.Header {
			buf = append(buf, h...)
			buf = append(buf, '\t')
		}
		buf = append(buf, '\n')
		_, _ = d.Write(buf)
		for _, row := range t.Rows {
			buf = buf[:0]
			for _, v := range row {
				buf = strconv.AppendInt(buf, int64(v), 10)
				buf = append(buf, '\t')
			}
			buf = append(buf, '\n')
			_, _ = d.Write(buf)
		}
	}
	return d.Sum64()
}
