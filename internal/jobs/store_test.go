package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taggenius/internal/jobs"
	"taggenius/internal/services"
	"taggenius/internal/tags"
	"taggenius/internal/testsupport"
)

func newLedger(t *testing.T) *jobs.Store {
	t.Helper()
	return testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
}

func sampleTracks() []tags.TrackDescriptor {
	return []tags.TrackDescriptor{
		{Title: "Archangel", Artist: "Burial"},
		{Title: "One More Time", Artist: "Daft Punk", GenreHint: "House", Year: "2000"},
	}
}

func sampleRendered() tags.RenderedTagSet {
	return tags.RenderedTagSet{
		PrimaryGenre: "UK Garage",
		Tags: map[tags.Group][]string{
			tags.GroupSubGenre: {"2-step", "future garage"},
		},
		EnergyLevel: 6,
	}
}

func TestSubmitPersistsJobAndItems(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	detail := tags.DetailConfig{tags.GroupSubGenre: 2, tags.GroupEnergyVibe: 1}
	job, err := ledger.Submit(ctx, sampleTracks(), detail)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}
	if job.TrackCount != 2 {
		t.Fatalf("track count = %d, want 2", job.TrackCount)
	}
	if job.Detail.Count(tags.GroupSubGenre) != 2 {
		t.Fatalf("detail not persisted: %v", job.Detail)
	}

	items, err := ledger.Items(ctx, job.ID)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Descriptor.Title != "Archangel" || items[1].Descriptor.Title != "One More Time" {
		t.Fatalf("items out of submission order: %+v", items)
	}
	if items[1].Descriptor.GenreHint != "House" || items[1].Descriptor.Year != "2000" {
		t.Fatalf("descriptor fields lost: %+v", items[1].Descriptor)
	}
	for _, item := range items {
		if item.State != jobs.ItemPending {
			t.Fatalf("item %d state = %s, want pending", item.Position, item.State)
		}
	}
}

func TestSubmitRejectsInvalidBatch(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	if _, err := ledger.Submit(ctx, nil, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty batch: expected validation error, got %v", err)
	}
	if _, err := ledger.Submit(ctx, []tags.TrackDescriptor{{Artist: "Burial"}}, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing title: expected validation error, got %v", err)
	}
	badDetail := tags.DetailConfig{"moods": 1}
	if _, err := ledger.Submit(ctx, sampleTracks(), badDetail); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unknown group: expected validation error, got %v", err)
	}
}

func TestClaimNextQueuedIsOldestFirst(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	first, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// SQLite timestamps have nanosecond precision but same-instant inserts
	// still need distinct created_at values for a deterministic claim order.
	time.Sleep(5 * time.Millisecond)
	second, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	claimed, err := ledger.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("claimed %+v, want oldest job %s", claimed, first.ID)
	}
	if claimed.Status != jobs.StatusRunning {
		t.Fatalf("claimed status = %s, want running", claimed.Status)
	}
	if claimed.StartedAt == nil || claimed.LastHeartbeat == nil {
		t.Fatal("claim must stamp start time and heartbeat")
	}

	claimed, err = ledger.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if claimed == nil || claimed.ID != second.ID {
		t.Fatalf("second claim %+v, want %s", claimed, second.ID)
	}

	claimed, err = ledger.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if claimed != nil {
		t.Fatalf("empty queue should claim nil, got %+v", claimed)
	}
}

func TestRequestCancelQueuedJobFinalizesImmediately(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	job, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	applied, err := ledger.RequestCancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if !applied {
		t.Fatal("cancel of queued job should apply")
	}

	got, err := ledger.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != jobs.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if got.FinishedAt == nil {
		t.Fatal("cancelled job should carry a finish time")
	}

	// Cancelled jobs never reach a worker.
	claimed, err := ledger.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if claimed != nil {
		t.Fatalf("cancelled job was claimed: %+v", claimed)
	}
}

func TestRequestCancelRunningJobSetsFlag(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	job, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ledger.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}

	applied, err := ledger.RequestCancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if !applied {
		t.Fatal("cancel of running job should apply")
	}

	flagged, err := ledger.CancelRequested(ctx, job.ID)
	if err != nil {
		t.Fatalf("CancelRequested: %v", err)
	}
	if !flagged {
		t.Fatal("cancel flag not set")
	}

	got, err := ledger.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != jobs.StatusRunning {
		t.Fatalf("running job must keep its status until the worker yields, got %s", got.Status)
	}
}

func TestRequestCancelTerminalJobDoesNotApply(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	job, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ledger.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}
	if err := ledger.Finalize(ctx, job.ID, jobs.StatusCompleted, 2, ""); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	applied, err := ledger.RequestCancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if applied {
		t.Fatal("cancel must not apply to a terminal job")
	}
}

func TestRequestCancelMissingJob(t *testing.T) {
	ledger := newLedger(t)
	if _, err := ledger.RequestCancel(context.Background(), "no-such-job"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestFinalizeFirstTerminalStatusWins(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	job, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ledger.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}

	if err := ledger.Finalize(ctx, job.ID, jobs.StatusCancelled, 1, ""); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := ledger.Finalize(ctx, job.ID, jobs.StatusCompleted, 2, ""); err != nil {
		t.Fatalf("second Finalize: %v", err)
	}

	got, err := ledger.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != jobs.StatusCancelled {
		t.Fatalf("status = %s, want the first terminal status to stick", got.Status)
	}
	if got.Processed != 1 {
		t.Fatalf("processed = %d, want 1", got.Processed)
	}
}

func TestFinalizeRejectsNonTerminalStatus(t *testing.T) {
	ledger := newLedger(t)
	if err := ledger.Finalize(context.Background(), "any", jobs.StatusRunning, 0, ""); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestReclaimStaleRequeuesDeadWorkers(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	job, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ledger.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}

	// A cutoff in the past leaves the fresh heartbeat alone.
	reclaimed, err := ledger.ReclaimStale(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if reclaimed != 0 {
		t.Fatalf("reclaimed %d fresh jobs", reclaimed)
	}

	// A cutoff in the future makes the heartbeat stale.
	reclaimed, err = ledger.ReclaimStale(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("reclaimed = %d, want 1", reclaimed)
	}

	got, err := ledger.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != jobs.StatusQueued {
		t.Fatalf("status = %s, want requeued", got.Status)
	}
	if got.StartedAt != nil || got.LastHeartbeat != nil {
		t.Fatal("requeue must clear start time and heartbeat")
	}
}

func TestRecordItemResultAndOutput(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	job, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rendered := sampleRendered()
	if err := ledger.RecordItemResult(ctx, job.ID, 0, jobs.ItemCompleted, true, &rendered, ""); err != nil {
		t.Fatalf("RecordItemResult: %v", err)
	}
	if err := ledger.RecordItemResult(ctx, job.ID, 1, jobs.ItemFailed, false, nil, "rate limited"); err != nil {
		t.Fatalf("RecordItemResult: %v", err)
	}

	items, err := ledger.Output(ctx, job.ID)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	done := items[0]
	if done.State != jobs.ItemCompleted || !done.CacheHit {
		t.Fatalf("item 0: %+v", done)
	}
	if done.Rendered == nil || done.Rendered.PrimaryGenre != "UK Garage" {
		t.Fatalf("item 0 rendered: %+v", done.Rendered)
	}
	if got := done.Rendered.Tags[tags.GroupSubGenre]; len(got) != 2 {
		t.Fatalf("item 0 tags: %v", got)
	}

	failed := items[1]
	if failed.State != jobs.ItemFailed || failed.Rendered != nil {
		t.Fatalf("item 1: %+v", failed)
	}
	if failed.ErrorMessage != "rate limited" {
		t.Fatalf("item 1 error = %q", failed.ErrorMessage)
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	queued, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	running, err := ledger.Submit(ctx, sampleTracks(), nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// The oldest job is claimed first; swap so "running" names the claimed one.
	queued, running = running, queued
	if _, err := ledger.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("ClaimNextQueued: %v", err)
	}

	all, err := ledger.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	runningOnly, err := ledger.ListJobs(ctx, jobs.StatusRunning)
	if err != nil {
		t.Fatalf("ListJobs(running): %v", err)
	}
	if len(runningOnly) != 1 || runningOnly[0].ID != running.ID {
		t.Fatalf("running filter: %+v", runningOnly)
	}

	queuedOnly, err := ledger.ListJobs(ctx, jobs.StatusQueued)
	if err != nil {
		t.Fatalf("ListJobs(queued): %v", err)
	}
	if len(queuedOnly) != 1 || queuedOnly[0].ID != queued.ID {
		t.Fatalf("queued filter: %+v", queuedOnly)
	}

	stats, err := ledger.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[jobs.StatusQueued] != 1 || stats[jobs.StatusRunning] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := jobs.ParseStatus(" Running "); !ok || status != jobs.StatusRunning {
		t.Fatalf("ParseStatus = (%s, %v)", status, ok)
	}
	if _, ok := jobs.ParseStatus("paused"); ok {
		t.Fatal("unknown status accepted")
	}
	if _, ok := jobs.ParseStatus(""); ok {
		t.Fatal("empty status accepted")
	}
}
