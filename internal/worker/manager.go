package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"taggenius/internal/blueprint"
	"taggenius/internal/config"
	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/services/llm"
	"taggenius/internal/tags"
)

// Classifier is the slice of the gateway the worker needs. Satisfied by
// *llm.Client; tests substitute fakes.
type Classifier interface {
	Classify(ctx context.Context, desc tags.TrackDescriptor, shape llm.RequestShape) (llm.Classification, error)
}

// Manager polls the ledger for queued jobs and processes them.
type Manager struct {
	cfg        *config.Config
	store      *jobs.Store
	cache      *blueprint.Store
	classifier Classifier
	logger     *slog.Logger

	pollInterval   time.Duration
	retryInterval  time.Duration
	heartbeatEvery time.Duration
	staleAfter     time.Duration
	progressStride int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a batch processor.
func NewManager(cfg *config.Config, store *jobs.Store, cache *blueprint.Store, classifier Classifier, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:            cfg,
		store:          store,
		cache:          cache,
		classifier:     classifier,
		logger:         logging.NewComponentLogger(logger, "worker"),
		pollInterval:   time.Duration(cfg.Workflow.JobPollInterval) * time.Second,
		retryInterval:  time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		heartbeatEvery: time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second,
		staleAfter:     time.Duration(cfg.Workflow.HeartbeatTimeout) * time.Second,
		progressStride: cfg.Workflow.ProgressStride,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the current item to
// finish. Cooperative: an in-flight classifier call completes or is cut off
// by context cancellation.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the processing loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent loop-level error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimed, err := m.store.ReclaimStale(ctx, time.Now().Add(-m.staleAfter)); err != nil {
			m.logger.Warn("reclaim stale jobs failed; abandoned jobs may stay running",
				logging.Error(err),
				logging.String(logging.FieldEventType, "reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check ledger database access"),
			)
		} else if reclaimed > 0 {
			m.logger.Info("requeued abandoned jobs", logging.Int64("count", reclaimed))
		}

		job, err := m.store.ClaimNextQueued(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "claim_failed"),
				logging.String(logging.FieldErrorHint, "check ledger database access"),
			)
			m.sleep(ctx, m.retryInterval)
			continue
		}
		if job == nil {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		if err := m.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
