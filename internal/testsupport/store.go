package testsupport

import (
	"context"
	"testing"

	"taggenius/internal/blueprint"
	"taggenius/internal/config"
	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/tags"
)

// MustOpenLedger opens a jobs.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenCache opens a blueprint.Store for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *blueprint.Store {
	t.Helper()

	store, err := blueprint.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("blueprint.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SubmitBatch creates a queued job for tests using the provided ledger.
func SubmitBatch(t testing.TB, store *jobs.Store, tracks []tags.TrackDescriptor, detail tags.DetailConfig) *jobs.Job {
	t.Helper()

	job, err := store.Submit(context.Background(), tracks, detail)
	if err != nil {
		t.Fatalf("store.Submit: %v", err)
	}
	return job
}

// Tracks builds simple track descriptors from "artist - title" shorthand; a
// bare string becomes a title with no artist.
func Tracks(labels ...string) []tags.TrackDescriptor {
	descriptors := make([]tags.TrackDescriptor, 0, len(labels))
	for _, label := range labels {
		descriptors = append(descriptors, trackFromLabel(label))
	}
	return descriptors
}
