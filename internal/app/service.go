// Package service runs one ranking pass end to end: read and encode the
// history, scan the candidate space in parallel, merge, gap-filter, assemble
// and write the report.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/comborank/internal/adapters/mq/queue"
	"github.com/okian/comborank/internal/adapters/mq/worker"
	"github.com/okian/comborank/internal/adapters/repository"
	"github.com/okian/comborank/internal/config"
	"github.com/okian/comborank/internal/domain/enumerate"
	"github.com/okian/comborank/internal/domain/gap"
	"github.com/okian/comborank/internal/domain/history"
	"github.com/okian/comborank/internal/domain/model"
	"github.com/okian/comborank/internal/domain/report"
	"github.com/okian/comborank/internal/domain/scoring"
	"github.com/okian/comborank/internal/domain/tier"
	"github.com/okian/comborank/internal/domain/topk"
	"github.com/okian/comborank/pkg/logger"
	"github.com/okian/comborank/pkg/metrics"
)

// Run phases reported by Stats.
const (
	PhaseIdle      = "idle"
	PhaseReading   = "reading"
	PhaseScoring   = "scoring"
	PhaseFiltering = "filtering"
	PhaseWriting   = "writing"
	PhaseDone      = "done"
	PhaseFailed    = "failed"
)

// Editor is told to release the workbook before the run reads it and to
// reopen it once the run ends. *editor.Coordinator implements it.
type Editor interface {
	Release(ctx context.Context, path string)
	Reopen(ctx context.Context, path string)
}

// Stats is a snapshot of run progress.
type Stats struct {
	RunID         string `json:"run_id,omitempty"`
	Phase         string `json:"phase"`
	Draws         int    `json:"draws"`
	DroppedRows   int    `json:"dropped_rows"`
	Candidates    int    `json:"candidates"`
	Scored        int64  `json:"scored"`
	Batches       int64  `json:"batches"`
	Workers       int    `json:"workers"`
	QueueLength   int    `json:"queue_length"`
	QueueCapacity int    `json:"queue_capacity"`
	Elapsed       string `json:"elapsed"`
}

// Service executes ranking runs for one configuration.
type Service struct {
	cfg    *config.Config
	source repository.Source
	sink   repository.Sink
	editor Editor
	latest *repository.MemorySink
	logger logger.Logger

	mu      sync.RWMutex
	stats   Stats
	started time.Time
	pool    *worker.Pool
	queue   *queue.Queue
}

// New constructs a Service. The source defaults to the output workbook and
// the sink follows cfg.OutputFormat. cfg must already be validated.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		latest: repository.NewMemorySink(),
		logger: logger.Get().Named("service"),
		stats:  Stats{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = repository.NewXLSXSource(cfg.OutputPath, repository.WithHeaderRow(cfg.HeaderRow))
	}
	if s.sink == nil {
		switch cfg.OutputFormat {
		case config.FormatSQLite:
			s.sink = repository.NewSQLiteSink(cfg.SQLiteTarget())
		default:
			s.sink = repository.NewXLSXSink(cfg.OutputPath, repository.WithSheet(cfg.OutputSheet))
		}
	}
	return s
}

// Run performs one ranking pass and returns the written report. Nothing is
// written when any stage fails or ctx is cancelled.
func (s *Service) Run(ctx context.Context) (*report.Report, error) {
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))
	s.begin(runID)

	rep, err := s.run(ctx, runID, log)
	if err != nil {
		s.setPhase(PhaseFailed)
		log.Error(ctx, "run failed", logger.Error(err))
		return nil, err
	}
	s.setPhase(PhaseDone)

	elapsed := time.Since(s.startedAt())
	metrics.RecordRunDuration(elapsed.Seconds())
	log.Info(ctx, "run finished",
		logger.Duration("elapsed", elapsed),
		logger.Uint64("digest", rep.Digest),
	)
	return rep, nil
}

func (s *Service) run(ctx context.Context, runID string, log logger.Logger) (*report.Report, error) {
	cfg := s.cfg
	ladder, err := cfg.Ladder()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	if s.editor != nil {
		s.editor.Release(ctx, cfg.OutputPath)
		defer s.editor.Reopen(context.WithoutCancel(ctx), cfg.OutputPath)
	}

	s.setPhase(PhaseReading)
	log.Info(ctx, "reading history", logger.String("range", cfg.RangeSpec), logger.String("path", cfg.OutputPath))
	rows, err := s.source.ReadRows(ctx, cfg.RangeSpec)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	h, st, err := history.Encode(rows, cfg.UniverseSize, cfg.ComboSize)
	metrics.RecordDroppedRows(st.Dropped)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	metrics.UpdateHistorySize(h.Len())
	if st.Dropped > 0 {
		log.Warn(ctx, "dropped malformed rows", logger.Int("dropped", st.Dropped), logger.Int("rows", st.Rows))
	}
	s.mu.Lock()
	s.stats.Draws, s.stats.DroppedRows = h.Len(), st.Dropped
	s.mu.Unlock()

	merged, err := s.score(ctx, h, ladder, log)
	if err != nil {
		return nil, err
	}

	s.setPhase(PhaseFiltering)
	survivors, err := s.filter(ctx, h, ladder, merged, log)
	if err != nil {
		return nil, err
	}

	asm := report.New(ladder, cfg.ComboSize, cfg.TopN,
		report.WithNumberLabel(cfg.NumberLabel),
		report.WithRecencyLabel(cfg.RecencyLabel),
		report.WithMaxGapLabel(cfg.MaxGapLabel),
	)
	rep := asm.Assemble(runID, h.Len(), survivors)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.setPhase(PhaseWriting)
	if err := s.write(ctx, rep, log); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) score(ctx context.Context, h *history.History, ladder *tier.Ladder, log logger.Logger) (*topk.Accumulator, error) {
	cfg := s.cfg
	enum, err := enumerate.New(cfg.UniverseSize, cfg.ComboSize, enumerate.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	metrics.UpdateCandidatesTotal(enum.Total())

	q := queue.New(
		queue.WithCapacity(cfg.QueueDepth),
		queue.WithBatchBytes(queue.BatchBytes(cfg.BatchSize)),
	)
	capacity := min(cfg.Capacity(), enum.Total())
	pool := worker.NewPool(cfg.WorkerCount, q, enum, scoring.New(h, ladder), func() (*topk.Accumulator, error) {
		return topk.New(ladder, capacity)
	})

	s.mu.Lock()
	s.pool, s.queue = pool, q
	s.stats.Phase = PhaseScoring
	s.stats.Candidates = enum.Total()
	s.stats.Workers = pool.Workers()
	s.mu.Unlock()

	log.Info(ctx, "scoring candidates",
		logger.Int("candidates", enum.Total()),
		logger.Int("draws", h.Len()),
		logger.Int("workers", pool.Workers()),
		logger.Int("queue_capacity", q.Capacity()),
		logger.Int("accumulator_capacity", capacity),
	)
	accs, err := pool.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	start := time.Now()
	merged, err := topk.Merge(accs...)
	if err != nil {
		return nil, fmt.Errorf("merge accumulators: %w", err)
	}
	metrics.RecordMergeLatency(float64(time.Since(start).Microseconds()) / 1000)
	log.Debug(ctx, "accumulators merged", logger.Int("accumulators", len(accs)), logger.Int64("evictions", merged.Evictions()))
	return merged, nil
}

func (s *Service) filter(ctx context.Context, h *history.History, ladder *tier.Ladder, merged *topk.Accumulator, log logger.Logger) (map[int][]model.Survivor, error) {
	cfg := s.cfg
	analyzer, err := gap.New(h, ladder, cfg.MaxGapLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	order := cfg.Order()

	out := make(map[int][]model.Survivor, len(ladder.Ranked()))
	for _, i := range ladder.Ranked() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		sorted := merged.Sorted(i)
		kept := analyzer.Select(sorted, i, cfg.TopN, order)
		removed := examined(sorted, kept, cfg.TopN, order) - len(kept)
		name := ladder.Tier(i).Name
		metrics.RecordGapFilter(name, removed, len(kept), float64(time.Since(start).Microseconds())/1000)
		log.Debug(ctx, "gap filter", logger.String("tier", name), logger.Int("kept", len(kept)), logger.Int("removed", removed))
		if len(kept) < cfg.TopN {
			log.Info(ctx, "tier table not full", logger.String("tier", name), logger.Int("rows", len(kept)), logger.Int("top_n", cfg.TopN))
		}
		out[i] = kept
	}
	return out, nil
}

// examined returns how many ranked entries the gap filter looked at.
func examined(sorted []model.RankedEntry, kept []model.Survivor, topN int, order gap.Order) int {
	n := len(sorted)
	if order == gap.AfterTruncate && n > topN {
		n = topN
	}
	if len(kept) < topN || len(kept) == 0 {
		return n
	}
	last := kept[len(kept)-1].Entry.Mask
	for j := range sorted[:n] {
		if sorted[j].Mask == last {
			return j + 1
		}
	}
	return n
}

func (s *Service) write(ctx context.Context, rep *report.Report, log logger.Logger) error {
	if err := s.sink.Write(ctx, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := s.latest.Write(ctx, rep); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	log.Info(ctx, "report written", logger.Int("tables", len(rep.Tables)), logger.String("format", s.cfg.OutputFormat))
	return nil
}

// Latest returns the report of the last successful run, or
// repository.ErrNoReport.
func (s *Service) Latest(ctx context.Context) (*report.Report, error) {
	return s.latest.Latest(ctx)
}

// Stats returns a snapshot of run progress.
func (s *Service) Stats(_ context.Context) any {
	return s.Snapshot()
}

// Snapshot returns the typed progress snapshot.
func (s *Service) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.stats
	if s.pool != nil {
		st.Scored = s.pool.Scored()
		st.Batches = s.pool.Batches()
	}
	if s.queue != nil {
		st.QueueLength = s.queue.Len()
		st.QueueCapacity = s.queue.Capacity()
	}
	if !s.started.IsZero() {
		st.Elapsed = time.Since(s.started).Round(time.Millisecond).String()
	}
	return st
}

func (s *Service) begin(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = Stats{RunID: runID, Phase: PhaseReading}
	s.started = time.Now()
	s.pool, s.queue = nil, nil
}

func (s *Service) setPhase(phase string) {
	s.mu.Lock()
	s.stats.Phase = phase
	s.mu.Unlock()
}

func (s *Service) startedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
