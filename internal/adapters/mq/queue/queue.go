// Package queue carries candidate batches from the producer to the workers.
//
// The queue is bounded: a producer that runs ahead of the workers blocks in
// Enqueue instead of materializing more of the candidate space.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbnjay/memory"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/enumerate"
	"github.com/okian/comborank/pkg/metrics"
)

const (
	defaultCapacity = 16
	maskBytes       = 8
	// In-flight batches may use at most 1/budgetDivisor of system memory.
	budgetDivisor = 8
)

// Queue is a bounded FIFO of batches.
type Queue struct {
	batches    chan enumerate.Batch
	capacity   int
	batchBytes int
	budget     uint64

	mu     sync.RWMutex
	closed bool
}

// New creates a queue. The capacity is clamped so that capacity batches of
// the configured size fit in the memory budget, but never below one.
func New(opts ...Option) *Queue {
	q := &Queue{
		capacity: defaultCapacity,
		budget:   memory.TotalMemory() / budgetDivisor,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.batchBytes > 0 && q.budget > 0 {
		if limit := q.budget / uint64(q.batchBytes); limit < uint64(q.capacity) {
			q.capacity = max(int(limit), 1)
		}
	}
	q.batches = make(chan enumerate.Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueDepth(0)
	return q
}

// BatchBytes returns the memory one batch of size candidates occupies.
func BatchBytes(size int) int { return size * maskBytes }

// Enqueue blocks until b is accepted, ctx is done or the queue is closed.
func (q *Queue) Enqueue(ctx context.Context, b enumerate.Batch) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	select {
	case q.batches <- b:
		metrics.UpdateQueueDepth(len(q.batches))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue batch %d: %w", b.Seq, ctx.Err())
	}
}

// Dequeue blocks until a batch is available. It returns ErrClosed once the
// queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (enumerate.Batch, error) {
	select {
	case b, ok := <-q.batches:
		if !ok {
			return enumerate.Batch{}, ErrClosed
		}
		metrics.UpdateQueueDepth(len(q.batches))
		return b, nil
	case <-ctx.Done():
		return enumerate.Batch{}, ctx.Err()
	}
}

// Len returns the number of queued batches.
func (q *Queue) Len() int { return len(q.batches) }

// Capacity returns the effective bound after clamping.
func (q *Queue) Capacity() int { return q.capacity }

// Close stops accepting batches. Queued batches can still be dequeued.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *Queue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// BufferPool recycles batch buffers between the producer and the workers.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool returns a pool of buffers holding size candidates.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{pool: sync.Pool{
		New: func() any {
			s := make([]combo.Mask, 0, size)
			return &s
		},
	}}
}

// Get returns an empty batch backed by a pooled buffer.
func (p *BufferPool) Get() enumerate.Batch {
	s := p.pool.Get().(*[]combo.Mask)
	return enumerate.Batch{Masks: (*s)[:0]}
}

// Put returns b's buffer to the pool. b must not be used afterwards.
func (p *BufferPool) Put(b enumerate.Batch) {
	s := b.Masks[:0]
	p.pool.Put(&s)
}
