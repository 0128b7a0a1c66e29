package editor

import "errors"

// Sentinel kinds for editor coordination errors.
var (
	ErrInvalidCommand = errors.New("invalid editor command")
)
