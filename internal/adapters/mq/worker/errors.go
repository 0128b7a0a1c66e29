package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrWorkerFailed = errors.New("worker failed")
)
