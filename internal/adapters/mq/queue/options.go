package queue

// Option applies a configuration option to the Queue.
type Option func(*Queue)

// WithCapacity sets the maximum number of batches held.
func WithCapacity(capacity int) Option {
	return func(q *Queue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithBatchBytes sets the approximate size of one batch so the capacity can
// be clamped to the memory budget.
func WithBatchBytes(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.batchBytes = n
		}
	}
}

// WithMemoryBudget overrides the bytes in-flight batches may occupy. The
// default is an eighth of system memory.
func WithMemoryBudget(n uint64) Option {
	return func(q *Queue) {
		if n > 0 {
			q.budget = n
		}
	}
}
