package enumerate

// Option applies a configuration option to the Enumerator.
type Option func(*Enumerator)

// WithBatchSize sets the maximum number of candidates per batch.
func WithBatchSize(size int) Option {
	return func(e *Enumerator) {
		e.batchSize = size
	}
}
