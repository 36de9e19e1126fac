package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taggenius/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "llm", "classify", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"llm", "classify", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "jobs", "claim", "failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestIsJobFatal(t *testing.T) {
	fatal := []error{
		services.Wrap(services.ErrValidation, "jobs", "submit", "bad batch", nil),
		services.Wrap(services.ErrConfiguration, "llm", "classify", "api key required", nil),
	}
	for _, err := range fatal {
		if !services.IsJobFatal(err) {
			t.Fatalf("expected fatal: %v", err)
		}
	}

	recoverable := []error{
		nil,
		services.Wrap(services.ErrTransient, "llm", "classify", "rate limited", nil),
		services.Wrap(services.ErrPermanent, "llm", "classify", "parse payload", nil),
		services.Wrap(services.ErrNotFound, "jobs", "cancel", "job x", nil),
		errors.New("plain"),
	}
	for _, err := range recoverable {
		if services.IsJobFatal(err) {
			t.Fatalf("expected recoverable: %v", err)
		}
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("empty context should carry no job id")
	}

	ctx = services.WithJobID(ctx, "job-1")
	ctx = services.WithTrack(ctx, "Burial - Archangel")
	ctx = services.WithRequestID(ctx, "req-9")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("job id = (%q, %v)", id, ok)
	}
	if track, ok := services.TrackFromContext(ctx); !ok || track != "Burial - Archangel" {
		t.Fatalf("track = (%q, %v)", track, ok)
	}
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req-9" {
		t.Fatalf("request id = (%q, %v)", id, ok)
	}

	// Blank values leave the context untouched.
	same := services.WithJobID(context.Background(), "")
	if _, ok := services.JobIDFromContext(same); ok {
		t.Fatal("blank job id must not annotate")
	}
}
