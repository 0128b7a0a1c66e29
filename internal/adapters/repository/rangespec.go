package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Range is a parsed "[Sheet!]C1[R1]:C2[R2]" reference. Columns and rows
// are 1-based; a zero row means the range spec left it open.
type Range struct {
	Sheet    string
	FirstCol int
	FirstRow int
	LastCol  int
	LastRow  int
}

// Width returns the number of columns.
func (r Range) Width() int { return r.LastCol - r.FirstCol + 1 }

// ParseRange parses a range spec. "$" anchors are ignored.
func ParseRange(spec string) (Range, error) {
	var r Range
	s := strings.ReplaceAll(strings.TrimSpace(spec), "$", "")
	if i := strings.LastIndex(s, "!"); i >= 0 {
		r.Sheet = strings.Trim(s[:i], "'")
		s = s[i+1:]
	}
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q: want C1[R1]:C2[R2]", ErrInvalidRange, spec)
	}
	var err error
	if r.FirstCol, r.FirstRow, err = parseRef(from); err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, spec, err)
	}
	if r.LastCol, r.LastRow, err = parseRef(to); err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, spec, err)
	}
	if r.LastCol < r.FirstCol {
		return Range{}, fmt.Errorf("%w: %q: columns reversed", ErrInvalidRange, spec)
	}
	if r.FirstRow > 0 && r.LastRow > 0 && r.LastRow < r.FirstRow {
		return Range{}, fmt.Errorf("%w: %q: rows reversed", ErrInvalidRange, spec)
	}
	return r, nil
}

// parseRef splits "AB12" into column 28 and row 12; the row is optional.
func parseRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := strings.IndexFunc(ref, func(c rune) bool { return c < 'A' || c > 'Z' })
	letters, digits := ref, ""
	if i >= 0 {
		letters, digits = ref[:i], ref[i:]
	}
	if letters == "" {
		return 0, 0, fmt.Errorf("missing column in %q", ref)
	}
	if col, err = excelize.ColumnNameToNumber(letters); err != nil {
		return 0, 0, err
	}
	if digits == "" {
		return col, 0, nil
	}
	if row, err = strconv.Atoi(digits); err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad row in %q", ref)
	}
	return col, row, nil
}
