package enumerate

import "errors"

// Sentinel kinds for enumerator errors.
var (
	ErrInvalidBatchSize = errors.New("invalid batch size")
)
