package gap

import "errors"

// Sentinel kinds for gap analysis errors.
var (
	ErrInvalidOrder = errors.New("invalid filter order")
	ErrInvalidLimit = errors.New("invalid max gap limit")
)
