package fetcher

import "errors"

// Sentinel kinds for fetch errors.
var (
	ErrFormNotFound = errors.New("search form not found")
	ErrStatus       = errors.New("unexpected HTTP status")
)
