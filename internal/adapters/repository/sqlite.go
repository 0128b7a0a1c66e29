package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/comborank/internal/domain/report"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	draws      INTEGER NOT NULL,
	combo_size INTEGER NOT NULL,
	digest     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rankings (
	run_id  TEXT NOT NULL,
	tier    TEXT NOT NULL,
	rank    INTEGER NOT NULL,
	numbers TEXT NOT NULL,
	hits    INTEGER NOT NULL,
	recency INTEGER NOT NULL,
	max_gap INTEGER NOT NULL,
	PRIMARY KEY (run_id, tier, rank)
);`

// SQLiteSink stores survivors, one row per tier and rank. Padding rows are
// not stored.
type SQLiteSink struct {
	path string
	now  func() time.Time
}

// NewSQLiteSink returns a sink writing to the database file at path.
func NewSQLiteSink(path string) *SQLiteSink {
	return &SQLiteSink{path: path, now: time.Now}
}

// Write implements Sink.
func (s *SQLiteSink) Write(ctx context.Context, r *report.Report) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, draws, combo_size, digest, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.Draws, r.ComboSize, fmt.Sprintf("%016x", r.Digest), s.now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rankings (run_id, tier, rank, numbers, hits, recency, max_gap) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	k := r.ComboSize
	for _, t := range r.Tables {
		for i := 0; i < t.Filled; i++ {
			row := t.Rows[i]
			if _, err := stmt.ExecContext(ctx,
				r.RunID, t.Tier, i+1, joinInts(row[:k]), row[k], row[len(row)-2], row[len(row)-1],
			); err != nil {
				return fmt.Errorf("insert %s rank %d: %w", t.Tier, i+1, err)
			}
		}
	}
	return tx.Commit()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
