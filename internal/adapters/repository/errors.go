package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrInvalidRange  = errors.New("invalid range")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrNoReport      = errors.New("no report available")
)
