package history

import "errors"

// Sentinel kinds for history errors.
var (
	ErrEmptyHistory  = errors.New("no draws to score against")
	ErrMalformedDraw = errors.New("malformed draw")
)
