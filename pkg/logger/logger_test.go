package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithOptions(&buf, FormatJSON); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Named("scan").Info(context.Background(), "batch scored",
		Int("candidates", 10),
		Uint64("digest", 42),
		Duration("elapsed", time.Second),
		Bool("last", true),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "batch scored" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
	if rec["component"] != "scan" {
		t.Errorf("unexpected component %v", rec["component"])
	}
	if rec["candidates"] != float64(10) {
		t.Errorf("unexpected candidates %v", rec["candidates"])
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected caller to be this file, got %q", src)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithOptions(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = SetLevelString("info")
		_ = Init()
	}()

	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().With(String("run_id", "r1")).Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "run_id=r1") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestLoggerRejectsUnknownSettings(t *testing.T) {
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := InitWithOptions(&bytes.Buffer{}, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
