package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/okian/comborank/internal/backtest"
)

func TestRun_Usage(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"a.xlsx", "draws"}, &stderr); code != exitUsage {
		t.Errorf("exit = %d, want %d", code, exitUsage)
	}
	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	if code := run([]string{missing, "draws", "B:F", "prize"}, &stderr); code != exitUsage {
		t.Errorf("exit = %d, want %d", code, exitUsage)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(fmt.Errorf("x: %w", backtest.ErrSectionMarkers)); got != exitUsage {
		t.Errorf("section markers exit = %d, want %d", got, exitUsage)
	}
	if got := exitCode(fmt.Errorf("boom")); got != exitRuntime {
		t.Errorf("runtime exit = %d, want %d", got, exitRuntime)
	}
}
