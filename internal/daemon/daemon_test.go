package daemon

import (
	"context"
	"testing"

	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/services/llm"
	"taggenius/internal/tags"
	"taggenius/internal/testsupport"
	"taggenius/internal/worker"
)

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, desc tags.TrackDescriptor, shape llm.RequestShape) (llm.Classification, error) {
	bp := testsupport.Blueprint("house")
	return llm.Classification{
		PrimaryGenre: bp.PrimaryGenre,
		Descriptors:  bp.Descriptors,
		EnergyLevel:  bp.EnergyLevel,
		Model:        bp.Model,
	}, nil
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenLedger(t, cfg)
	cache := testsupport.MustOpenCache(t, cfg)
	wk := worker.NewManager(cfg, ledger, cache, stubClassifier{}, logging.NewNop())
	d, err := New(cfg, ledger, cache, wk, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}

	status := d.Status(context.Background())
	if !status.Running || !status.WorkerRunning {
		t.Fatalf("status = %+v", status)
	}

	d.Stop()
	status = d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should report stopped")
	}
}

func TestDaemonSubmitAndCancel(t *testing.T) {
	d := newTestDaemon(t)
	ctx := context.Background()

	job, err := d.Submit(ctx, testsupport.Tracks("Daft Punk - One More Time"), tags.MaxDetail())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("status = %s", job.Status)
	}

	applied, err := d.Cancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !applied {
		t.Fatal("cancel should apply to a queued job")
	}

	resolved, items, err := d.Output(ctx, job.ID)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if resolved.Status != jobs.StatusCancelled {
		t.Fatalf("status = %s", resolved.Status)
	}
	if len(items) != 1 || items[0].State != jobs.ItemPending {
		t.Fatalf("items = %+v", items)
	}
}
