// Package config defines run configuration and its loading.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validate reports every problem as ErrInvalidConfig so callers can tell
//   configuration errors from runtime failures.
package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/okian/comborank/internal/domain/combo"
	"github.com/okian/comborank/internal/domain/gap"
	"github.com/okian/comborank/internal/domain/report"
	"github.com/okian/comborank/internal/domain/tier"
)

// Output formats.
const (
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// Config contains run configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// RangeSpec locates the draw history, e.g. "Sheet1!B2:F".
	RangeSpec string `koanf:"range"`
	// ComboSize is k, the number of values per draw and per candidate.
	ComboSize int `koanf:"combo_size"`
	// OutputPath is the workbook read from and written to.
	OutputPath string `koanf:"output_path"`
	// UniverseSize is n; values are drawn from [1, n].
	UniverseSize int `koanf:"universe_size"`
	// HeaderRow skips the first row of the range.
	HeaderRow bool `koanf:"header_row"`

	BatchSize   int `koanf:"batch_size"`
	WorkerCount int `koanf:"worker_count"`
	QueueDepth  int `koanf:"queue_depth"`

	// TopN is the number of rows per tier table.
	TopN int `koanf:"top_n"`
	// MaxGapLimit is the highest MaxGap a reported candidate may have.
	MaxGapLimit int `koanf:"max_gap_limit"`
	// FilterOrder is before_truncate or after_truncate.
	FilterOrder string `koanf:"filter_order"`
	// PoolFactor over-provisions accumulators for before_truncate.
	PoolFactor int `koanf:"pool_factor"`

	OutputSheet  string `koanf:"output_sheet"`
	OutputFormat string `koanf:"output_format"`
	SQLitePath   string `koanf:"sqlite_path"`

	// StatusAddr enables the status server when non-empty, e.g. ":9080".
	StatusAddr string `koanf:"status_addr"`

	NumberLabel  string `koanf:"number_label"`
	RecencyLabel string `koanf:"recency_label"`
	MaxGapLabel  string `koanf:"max_gap_label"`

	// Tiers overrides the default ladder when non-empty.
	Tiers []TierConfig `koanf:"tiers"`

	Editor EditorConfig `koanf:"editor"`
}

// TierConfig is the file form of tier.Tier.
type TierConfig struct {
	Name      string   `koanf:"name"`
	Label     string   `koanf:"label"`
	Threshold int      `koanf:"threshold"`
	Exact     bool     `koanf:"exact"`
	Ranked    bool     `koanf:"ranked"`
	TieBreak  []string `koanf:"tie_break"`
	Columns   []string `koanf:"columns"`
}

// EditorConfig controls releasing and reopening the workbook around writes.
type EditorConfig struct {
	Enabled       bool          `koanf:"enabled"`
	CloseCommand  string        `koanf:"close_command"`
	ReopenCommand string        `koanf:"reopen_command"`
	SettleDelay   time.Duration `koanf:"settle_delay"`
	Attempts      uint          `koanf:"attempts"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		UniverseSize: 39,
		HeaderRow:    true,
		BatchSize:    100_000,
		WorkerCount:  runtime.NumCPU(),
		QueueDepth:   runtime.NumCPU() * 2,
		TopN:         200,
		MaxGapLimit:  1_000_000,
		FilterOrder:  string(gap.BeforeTruncate),
		PoolFactor:   5,
		OutputSheet:  "獲獎排列",
		OutputFormat: FormatXLSX,
		NumberLabel:  report.DefaultNumberLabel,
		RecencyLabel: report.DefaultRecencyLabel,
		MaxGapLabel:  report.DefaultMaxGapLabel,
		Editor: EditorConfig{
			Enabled:     true,
			SettleDelay: 200 * time.Millisecond,
			Attempts:    3,
		},
	}
}

// Validate checks the configuration. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RangeSpec) == "" {
		return fmt.Errorf("%w: range must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("%w: output path must not be empty", ErrInvalidConfig)
	}
	if err := combo.ValidateUniverse(c.UniverseSize, c.ComboSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	checks := []struct {
		name  string
		value int
	}{
		{"batch_size", c.BatchSize},
		{"top_n", c.TopN},
		{"max_gap_limit", c.MaxGapLimit},
		{"pool_factor", c.PoolFactor},
		{"queue_depth", c.QueueDepth},
	}
	for _, ch := range checks {
		if ch.value < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, ch.name, ch.value)
		}
	}
	if _, err := gap.ParseOrder(c.FilterOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.PoolFactor > math.MaxInt/c.TopN {
		return fmt.Errorf("%w: top_n %d times pool_factor %d overflows", ErrInvalidConfig, c.TopN, c.PoolFactor)
	}
	if !lo.Contains([]string{FormatXLSX, FormatSQLite}, c.OutputFormat) {
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.OutputFormat)
	}
	if !strings.Contains(c.NumberLabel, "%d") {
		return fmt.Errorf("%w: number_label %q must contain %%d", ErrInvalidConfig, c.NumberLabel)
	}
	if c.Editor.Attempts < 1 {
		return fmt.Errorf("%w: editor.attempts must be positive", ErrInvalidConfig)
	}
	if _, err := c.Ladder(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Ladder builds the configured tier ladder, or the default one.
func (c *Config) Ladder() (*tier.Ladder, error) {
	if len(c.Tiers) == 0 {
		return tier.NewLadder(tier.Default())
	}
	return tier.NewLadder(lo.Map(c.Tiers, func(t TierConfig, _ int) tier.Tier {
		return tier.Tier{
			Name:      t.Name,
			Label:     t.Label,
			Threshold: t.Threshold,
			Exact:     t.Exact,
			Ranked:    t.Ranked,
			TieBreak:  t.TieBreak,
			Columns:   t.Columns,
		}
	}))
}

// Order returns the parsed filter order. Call after Validate.
func (c *Config) Order() gap.Order {
	o, _ := gap.ParseOrder(c.FilterOrder)
	return o
}

// Capacity returns the per-tier accumulator bound.
func (c *Config) Capacity() int {
	return c.Order().Capacity(c.TopN, c.PoolFactor)
}

// SQLiteTarget returns where the SQLite sink writes: sqlite_path, or the
// output workbook path with a .db extension.
func (c *Config) SQLiteTarget() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return strings.TrimSuffix(c.OutputPath, ".xlsx") + ".db"
}
