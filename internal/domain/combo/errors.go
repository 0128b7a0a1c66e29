package combo

import "errors"

// Sentinel kinds for encoding errors.
var (
	ErrInvalidUniverse = errors.New("invalid universe")
)
