package tier

import "errors"

// Sentinel kinds for ladder errors.
var (
	ErrInvalidLadder = errors.New("invalid tier ladder")
)
