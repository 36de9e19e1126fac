package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"taggenius/internal/blueprint"
	"taggenius/internal/config"
	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/tags"
	"taggenius/internal/worker"
)

// Daemon coordinates the batch processor and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	ledger *jobs.Store
	cache  *blueprint.Store
	worker *worker.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	LedgerDBPath  string
	CacheDBPath   string
	LockFilePath  string
	JobStats      map[jobs.Status]int
	CacheCount    int
	WorkerRunning bool
	WorkerError   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, ledger *jobs.Store, cache *blueprint.Store, wk *worker.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || ledger == nil || cache == nil || wk == nil {
		return nil, errors.New("daemon requires config, stores, and worker")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "taggeniusd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		ledger:   ledger,
		cache:    cache,
		worker:   wk,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the batch processor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another taggenius daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.worker.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start worker: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the batch processor and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.ledger != nil {
		errs = append(errs, d.ledger.Close())
	}
	if d.cache != nil {
		errs = append(errs, d.cache.Close())
	}
	return errors.Join(errs...)
}

// Status reports aggregate daemon runtime information. Store errors degrade to
// partial status rather than failing the call.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		LedgerDBPath:  d.ledger.Path(),
		CacheDBPath:   d.cache.Path(),
		LockFilePath:  d.lockPath,
		WorkerRunning: d.worker.Running(),
	}
	if err := d.worker.LastError(); err != nil {
		status.WorkerError = err.Error()
	}
	if stats, err := d.ledger.Stats(ctx); err == nil {
		status.JobStats = stats
	} else {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}
	if count, err := d.cache.Count(ctx); err == nil {
		status.CacheCount = count
	} else {
		d.logger.Warn("cache count unavailable", logging.Error(err))
	}
	return status
}

// Submit queues a new classification batch.
func (d *Daemon) Submit(ctx context.Context, tracks []tags.TrackDescriptor, detail tags.DetailConfig) (*jobs.Job, error) {
	return d.ledger.Submit(ctx, tracks, detail)
}

// GetJob fetches a single job by identifier.
func (d *Daemon) GetJob(ctx context.Context, id string) (*jobs.Job, error) {
	return d.ledger.GetJob(ctx, id)
}

// ListJobs returns jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []jobs.Status) ([]*jobs.Job, error) {
	return d.ledger.ListJobs(ctx, statuses...)
}

// Cancel requests cancellation of a job. The boolean reports whether the
// request applied to a live job.
func (d *Daemon) Cancel(ctx context.Context, id string) (bool, error) {
	return d.ledger.RequestCancel(ctx, id)
}

// Output returns the ordered per-item results for a job.
func (d *Daemon) Output(ctx context.Context, id string) (*jobs.Job, []jobs.Item, error) {
	job, err := d.ledger.GetJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, fmt.Errorf("job %s not found", id)
	}
	items, err := d.ledger.Output(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return job, items, nil
}

// CacheList returns all cached blueprints.
func (d *Daemon) CacheList(ctx context.Context) ([]blueprint.Entry, error) {
	return d.cache.List(ctx)
}

// CacheRemove evicts one cached blueprint by identity.
func (d *Daemon) CacheRemove(ctx context.Context, identity tags.Identity) (bool, error) {
	return d.cache.Remove(ctx, identity)
}

// CacheClear evicts every cached blueprint and reports how many were removed.
func (d *Daemon) CacheClear(ctx context.Context) (int64, error) {
	return d.cache.Clear(ctx)
}
