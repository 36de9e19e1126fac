package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"taggenius/internal/blueprint"
	"taggenius/internal/jobs"
	"taggenius/internal/logging"
	"taggenius/internal/services"
	"taggenius/internal/services/llm"
	"taggenius/internal/tags"
)

// processJob executes one claimed job to a terminal status. Ledger errors
// abandon the job in place (stale-heartbeat reclaim requeues it); everything
// else ends in completed, failed, or cancelled.
func (m *Manager) processJob(ctx context.Context, job *jobs.Job) error {
	jobCtx := services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, m.logger)
	jobStart := time.Now()

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.Int("track_count", job.TrackCount),
		logging.String("detail", job.Detail.String()),
	)

	hbCtx, hbCancel := context.WithCancel(jobCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeatLoop(hbCtx, &hbWG, job.ID)
	defer func() {
		hbCancel()
		hbWG.Wait()
	}()

	items, err := m.store.Items(jobCtx, job.ID)
	if err != nil {
		logger.Error("failed to load job items; abandoning job for reclaim", logging.Error(err))
		return err
	}
	if len(items) == 0 {
		// Submit rejects empty batches, so an itemless job is a malformed
		// submission that slipped in some other way.
		return m.finalize(jobCtx, logger, job.ID, jobs.StatusFailed, 0, "empty batch")
	}

	processed := 0
	for _, item := range items {
		if item.Done() {
			// Re-run of a reclaimed job; keep prior outcomes.
			processed++
		}
	}

	for _, item := range items {
		if item.Done() {
			continue
		}

		select {
		case <-jobCtx.Done():
			return jobCtx.Err()
		default:
		}

		cancelled, err := m.store.CancelRequested(jobCtx, job.ID)
		if err != nil {
			logger.Error("failed to read cancel flag; abandoning job for reclaim", logging.Error(err))
			return err
		}
		if cancelled {
			logger.Info("job cancelled",
				logging.String(logging.FieldEventType, "job_cancelled"),
				logging.Int("processed", processed),
			)
			return m.finalize(jobCtx, logger, job.ID, jobs.StatusCancelled, processed, "")
		}

		if err := m.processItem(jobCtx, job, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if services.IsJobFatal(err) {
				logger.Error("job-fatal item failure",
					logging.Error(err),
					logging.Int(logging.FieldItemIndex, item.Position),
				)
				return m.finalize(jobCtx, logger, job.ID, jobs.StatusFailed, processed, err.Error())
			}
			// Recorded per item; the batch keeps going.
		}
		processed++

		if m.progressStride > 0 && processed%m.progressStride == 0 {
			if err := m.store.UpdateProgress(jobCtx, job.ID, processed); err != nil {
				logger.Warn("progress update failed", logging.Error(err))
			}
		}
	}

	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("processed", processed),
		logging.Duration("job_duration", time.Since(jobStart)),
	)
	return m.finalize(jobCtx, logger, job.ID, jobs.StatusCompleted, processed, "")
}

// processItem resolves one track end to end and records its outcome. The
// returned error is nil for recorded per-item failures only when recording
// itself succeeded; callers decide whether the failure class aborts the job.
func (m *Manager) processItem(ctx context.Context, job *jobs.Job, item jobs.Item) error {
	desc := item.Descriptor
	itemCtx := services.WithTrack(ctx, desc.Label())
	logger := logging.WithContext(itemCtx, m.logger)

	gen := func(genCtx context.Context) (tags.Blueprint, error) {
		classification, err := m.classifier.Classify(genCtx, desc, llm.ShapeFull)
		if err != nil {
			return tags.Blueprint{}, err
		}
		return classification.Blueprint(time.Now()), nil
	}

	bp, hit, err := m.cache.LookupOrGenerate(itemCtx, desc.Identity(), gen)
	if err != nil && errors.Is(err, blueprint.ErrPersist) {
		// Generation succeeded; proceed with the in-memory blueprint and let
		// the miss recur next job.
		logger.Warn("blueprint persist failed; continuing with generated result", logging.Error(err))
		err = nil
	}
	if err != nil {
		logger.Warn("track classification failed",
			logging.Error(err),
			logging.Int(logging.FieldItemIndex, item.Position),
			logging.String(logging.FieldEventType, "item_failed"),
		)
		if recordErr := m.store.RecordItemResult(itemCtx, job.ID, item.Position, jobs.ItemFailed, false, nil, err.Error()); recordErr != nil {
			logger.Error("failed to record item failure", logging.Error(recordErr))
		}
		return err
	}

	rendered := tags.Render(bp, job.Detail)
	if err := m.store.RecordItemResult(itemCtx, job.ID, item.Position, jobs.ItemCompleted, hit, &rendered, ""); err != nil {
		logger.Error("failed to record item result", logging.Error(err))
		return fmt.Errorf("record item result: %w", err)
	}

	logger.Debug("track tagged",
		logging.Int(logging.FieldItemIndex, item.Position),
		logging.Bool("cache_hit", hit),
		logging.String("primary_genre", bp.PrimaryGenre),
	)
	return nil
}

func (m *Manager) finalize(ctx context.Context, logger *slog.Logger, jobID string, status jobs.Status, processed int, errorMessage string) error {
	if err := m.store.Finalize(ctx, jobID, status, processed, errorMessage); err != nil {
		logger.Error("failed to finalize job", logging.Error(err))
		return err
	}
	return nil
}

func (m *Manager) heartbeatLoop(ctx context.Context, wg *sync.WaitGroup, jobID string) {
	defer wg.Done()
	ticker := time.NewTicker(m.heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.Heartbeat(ctx, jobID); err != nil {
				m.logger.Warn("heartbeat write failed", logging.Error(err), logging.String(logging.FieldJobID, jobID))
			}
		}
	}
}
