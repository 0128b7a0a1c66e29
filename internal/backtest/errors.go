package backtest

import "errors"

// Sentinel kinds for backtest errors.
var (
	ErrComboSize      = errors.New("cannot detect combination size")
	ErrSectionMarkers = errors.New("missing section markers")
)
