package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taggenius/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "taggenius.log")
	logger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("classification started", String(FieldJobID, "job-1"))
	logger.Debug("cache probe", String(FieldTrack, "Burial - Archangel"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, fragment := range []string{"classification started", "job-1", "cache probe", "Burial - Archangel"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("log output missing %q:\n%s", fragment, out)
		}
	}
}

func TestNewJSONFormatEmitsStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taggenius.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("batch submitted", Int("track_count", 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, fragment := range []string{`"msg":"batch submitted"`, `"level":"info"`, `"track_count":3`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("json output missing %s:\n%s", fragment, out)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taggenius.log")
	logger, err := New(Options{Level: "warn", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info record leaked past warn level:\n%s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn record missing:\n%s", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextAddsStandardFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taggenius.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-7")
	ctx = services.WithTrack(ctx, "Daft Punk - One More Time")

	WithContext(ctx, logger).Info("track classified")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, fragment := range []string{`"job_id":"job-7"`, `"track":"Daft Punk - One More Time"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("context fields missing %s:\n%s", fragment, out)
		}
	}
}

func TestContextFieldsEmptyContext(t *testing.T) {
	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	if fields := ContextFields(nil); fields != nil {
		t.Fatalf("expected nil for nil context, got %v", fields)
	}
}

func TestNewComponentLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taggenius.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "blueprint").Info("cache opened")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"blueprint"`) {
		t.Fatalf("component field missing:\n%s", data)
	}
}

func TestNewNopDiscardsEverything(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop returned nil")
	}
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger must not enable any level")
	}
}
