package topk

import "errors"

// Sentinel kinds for accumulator errors.
var (
	ErrInvalidCapacity = errors.New("invalid top-k capacity")
	ErrIncompatible    = errors.New("accumulators are not compatible")
)
