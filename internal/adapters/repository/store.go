// Package repository reads draw histories from workbooks and persists
// ranking reports.
package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/comborank/internal/domain/report"
)

// Source provides raw draw rows.
type Source interface {
	// ReadRows returns the integer cells of a range, one slice per row.
	// Cells that are empty or not integers are 0.
	ReadRows(ctx context.Context, rangeSpec string) ([][]int, error)
}

// Sink persists a finished report.
type Sink interface {
	Write(ctx context.Context, r *report.Report) error
}

// MultiSink writes to every sink in order and joins their errors.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, r *report.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink keeps the most recent report for readers such as the status
// server.
type MemorySink struct {
	mu     sync.RWMutex
	latest *report.Report
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Write implements Sink.
func (m *MemorySink) Write(_ context.Context, r *report.Report) error {
	m.mu.Lock()
	m.latest = r
	m.mu.Unlock()
	return nil
}

// Latest returns the last report written, or ErrNoReport.
func (m *MemorySink) Latest(_ context.Context) (*report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, ErrNoReport
	}
	return m.latest, nil
}
