// Package worker runs the producer and the scoring workers of a ranking run.
//
// One producer walks the candidate space into the queue; each worker drains
// batches into its own accumulator and never talks to the others. Run is the
// join barrier: it returns every worker's accumulator only when all of them
// finished cleanly.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/comborank/internal/adapters/mq/queue"
	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/enumerate"
	"github.com/okian/comborank/internal/domain/scoring"
	"github.com/okian/comborank/internal/domain/topk"
	"github.com/okian/comborank/pkg/logger"
	"github.com/okian/comborank/pkg/metrics"
)

// Scorer scores a batch into a sink. *scoring.Scorer implements it.
type Scorer interface {
	ScoreBatch(batch []combo.Mask, sink scoring.Sink)
}

// AccumulatorFactory builds the empty accumulator each worker owns.
type AccumulatorFactory func() (*topk.Accumulator, error)

// Pool runs one producer and a fixed number of workers.
type Pool struct {
	workers  int
	queue    *queue.Queue
	enum     *enumerate.Enumerator
	scorer   Scorer
	newAcc   AccumulatorFactory
	buffers  *queue.BufferPool
	logEvery int64
	logger   logger.Logger

	scored  atomic.Int64
	batches atomic.Int64
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, q *queue.Queue, e *enumerate.Enumerator, s Scorer, newAcc AccumulatorFactory, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:  workerCount,
		queue:    q,
		enum:     e,
		scorer:   s,
		newAcc:   newAcc,
		logEvery: 100,
		logger:   logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffers == nil {
		p.buffers = queue.NewBufferPool(e.BatchSize())
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// Scored returns how many candidates have been scored so far.
func (p *Pool) Scored() int64 { return p.scored.Load() }

// Batches returns how many batches have been scored so far.
func (p *Pool) Batches() int64 { return p.batches.Load() }

// Run enumerates the whole candidate space and returns one accumulator per
// worker. Any worker failure cancels the others and no accumulator is
// returned.
func (p *Pool) Run(ctx context.Context) ([]*topk.Accumulator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accs := make([]*topk.Accumulator, p.workers)
	for i := range accs {
		acc, err := p.newAcc()
		if err != nil {
			return nil, fmt.Errorf("create accumulator: %w", err)
		}
		accs[i] = acc
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.produce(gctx) })
	for i, acc := range accs {
		g.Go(func() error { return p.work(gctx, i, acc) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accs, nil
}

func (p *Pool) produce(ctx context.Context) error {
	defer func() { _ = p.queue.Close() }()

	for {
		b, ok := p.enum.Next(p.buffers.Get())
		if !ok {
			p.buffers.Put(b)
			p.logger.Debug(ctx, "candidate space exhausted", logger.Int("candidates", p.enum.Emitted()))
			return nil
		}
		if err := p.queue.Enqueue(ctx, b); err != nil {
			p.buffers.Put(b)
			return fmt.Errorf("produce: %w", err)
		}
	}
}

func (p *Pool) work(ctx context.Context, id int, acc *topk.Accumulator) error {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	for {
		b, derr := p.queue.Dequeue(ctx)
		if errors.Is(derr, queue.ErrClosed) {
			metrics.RecordEvictions(acc.Evictions())
			return nil
		}
		if derr != nil {
			return derr
		}
		if err := p.score(id, b, acc); err != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			p.logger.Error(ctx, "worker failed", logger.Int("worker_id", id), logger.Int("batch", b.Seq), logger.Error(err))
			return err
		}
		n := p.batches.Add(1)
		if p.logEvery > 0 && n%p.logEvery == 0 {
			p.logger.Info(ctx, "progress",
				logger.Int64("batches", n),
				logger.Int64("candidates", p.scored.Load()),
				logger.Int("total", p.enum.Total()),
			)
		}
	}
}

func (p *Pool) score(id int, b enumerate.Batch, acc *topk.Accumulator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: worker %d batch %d: panic: %v", ErrWorkerFailed, id, b.Seq, r)
		}
	}()

	start := time.Now()
	p.scorer.ScoreBatch(b.Masks, acc)
	metrics.RecordBatchScored(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordCandidatesScored(len(b.Masks))
	p.scored.Add(int64(len(b.Masks)))
	p.buffers.Put(b)
	return nil
}
