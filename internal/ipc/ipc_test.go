package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taggenius/internal/api"
	"taggenius/internal/daemon"
	"taggenius/internal/ipc"
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

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenLedger(t, cfg)
	cache := testsupport.MustOpenCache(t, cfg)
	logger := logging.NewNop()
	wk := worker.NewManager(cfg, ledger, cache, stubClassifier{}, logger)
	d, err := daemon.New(cfg, ledger, cache, wk, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "taggeniusd.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || !status.Worker.Running {
		t.Fatalf("expected running daemon and worker, got %+v", status)
	}

	submitResp, err := client.Submit(ipc.SubmitRequest{
		Tracks: []api.TrackInput{
			{Title: "One More Time", Artist: "Daft Punk"},
			{Title: "Archangel", Artist: "Burial"},
		},
		Detail: map[string]int{"sub_genre": 2, "energy_vibe": 1},
	})
	if err != nil {
		t.Fatalf("Submit RPC failed: %v", err)
	}
	if submitResp.Job.ID == "" || submitResp.Job.TrackCount != 2 {
		t.Fatalf("submit job = %+v", submitResp.Job)
	}

	if _, err := client.Submit(ipc.SubmitRequest{}); err == nil {
		t.Fatal("empty submit should fail")
	}

	waitForJobStatus(t, client, submitResp.Job.ID, string(jobs.StatusCompleted))

	output, err := client.Output(submitResp.Job.ID)
	if err != nil {
		t.Fatalf("Output RPC failed: %v", err)
	}
	if len(output.Items) != 2 {
		t.Fatalf("output items = %d", len(output.Items))
	}
	for _, item := range output.Items {
		if item.State != "completed" || item.Rendered == nil {
			t.Fatalf("item = %+v", item)
		}
		if got := len(item.Rendered.Tags["sub_genre"]); got != 2 {
			t.Fatalf("sub_genre tags = %d, want 2", got)
		}
	}

	list, err := client.JobList(nil)
	if err != nil {
		t.Fatalf("JobList RPC failed: %v", err)
	}
	if len(list.Jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(list.Jobs))
	}

	cacheList, err := client.CacheList()
	if err != nil {
		t.Fatalf("CacheList RPC failed: %v", err)
	}
	if len(cacheList.Entries) != 2 {
		t.Fatalf("cache entries = %d, want 2", len(cacheList.Entries))
	}

	removeResp, err := client.CacheRemove("One More Time", "Daft Punk")
	if err != nil {
		t.Fatalf("CacheRemove RPC failed: %v", err)
	}
	if !removeResp.Removed {
		t.Fatal("expected cache entry to be removed")
	}

	clearResp, err := client.CacheClear()
	if err != nil {
		t.Fatalf("CacheClear RPC failed: %v", err)
	}
	if clearResp.Removed != 1 {
		t.Fatalf("cleared = %d, want 1", clearResp.Removed)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected Stopped=true")
	}
}

func waitForJobStatus(t *testing.T, client *ipc.Client, id, want string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.JobStatus(id)
		if err != nil {
			t.Fatalf("JobStatus RPC failed: %v", err)
		}
		if resp.Job.Status == want {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
}
