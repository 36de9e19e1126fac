package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taggenius/internal/services"
	"taggenius/internal/tags"
)

const jobColumns = "id, status, detail_config, track_count, processed, cancel_requested, error_message, created_at, started_at, finished_at, last_heartbeat"

// Submit validates a batch and inserts a queued job with its items. The
// detail configuration is validated (and clamped) once here; the worker and
// renderer trust it afterwards.
func (s *Store) Submit(ctx context.Context, tracks []tags.TrackDescriptor, detail tags.DetailConfig) (*Job, error) {
	if len(tracks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit", "batch must contain at least one track", nil)
	}
	for i, track := range tracks {
		if !track.Valid() {
			return nil, services.Wrap(services.ErrValidation, "jobs", "submit",
				fmt.Sprintf("track %d: title required", i), nil)
		}
	}
	detail = detail.Clone()
	if err := detail.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit", "detail config", err)
	}

	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("encode detail config: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (id, status, detail_config, track_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, StatusQueued, string(detailJSON), len(tracks), timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	for i, track := range tracks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_items (job_id, position, title, artist, genre_hint, year, state)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, track.Title, nullableString(track.Artist),
			nullableString(track.GenreHint), nullableString(track.Year), ItemPending,
		); err != nil {
			return nil, fmt.Errorf("insert job item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submit: %w", err)
	}

	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier. Returns nil when no job exists.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs matching the given statuses (all jobs when none are
// given), newest first.
func (s *Store) ListJobs(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return result, nil
}

// ClaimNextQueued atomically transitions the oldest queued job to running and
// returns it. Returns nil when the queue is empty. Claiming stamps the start
// time and an initial heartbeat.
func (s *Store) ClaimNextQueued(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var claimedID string
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin claim tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var id string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`, StatusQueued,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			claimedID = ""
			return nil
		}
		if err != nil {
			return fmt.Errorf("select queued job: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, started_at = ?, last_heartbeat = ? WHERE id = ? AND status = ?`,
			StatusRunning, now, now, id, StatusQueued,
		)
		if err != nil {
			return fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim job: rows affected: %w", err)
		}
		if affected == 0 {
			// Another worker won the race; treat as empty and poll again.
			claimedID = ""
			return nil
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit claim: %w", err)
		}
		claimedID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimedID == "" {
		return nil, nil
	}
	return s.GetJob(ctx, claimedID)
}

// RequestCancel records a cancellation request. Queued jobs are finalized as
// cancelled immediately (no worker will pick them up); running jobs keep the
// flag for the worker to observe at its next per-item checkpoint. The boolean
// reports whether the request applied to a live job.
func (s *Store) RequestCancel(ctx context.Context, id string) (bool, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var applied bool
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin cancel tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var status Status
		err = tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			applied = false
			return services.Wrap(services.ErrNotFound, "jobs", "cancel", fmt.Sprintf("job %s", id), nil)
		}
		if err != nil {
			return fmt.Errorf("select job status: %w", err)
		}

		switch status {
		case StatusQueued:
			if _, err := tx.ExecContext(ctx,
				`UPDATE jobs SET status = ?, cancel_requested = 1, finished_at = ?, last_heartbeat = NULL WHERE id = ? AND status = ?`,
				StatusCancelled, now, id, StatusQueued,
			); err != nil {
				return fmt.Errorf("cancel queued job: %w", err)
			}
			applied = true
		case StatusRunning:
			if _, err := tx.ExecContext(ctx,
				`UPDATE jobs SET cancel_requested = 1 WHERE id = ? AND status = ?`,
				id, StatusRunning,
			); err != nil {
				return fmt.Errorf("flag running job: %w", err)
			}
			applied = true
		default:
			applied = false
		}

		return tx.Commit()
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// CancelRequested reports whether cancellation has been recorded for a job.
func (s *Store) CancelRequested(ctx context.Context, id string) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ctx, `SELECT cancel_requested FROM jobs WHERE id = ?`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, services.Wrap(services.ErrNotFound, "jobs", "cancel_requested", fmt.Sprintf("job %s", id), nil)
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

// UpdateProgress stores the processed-count and refreshes the heartbeat.
// Advisory: failures here should not abort the job.
func (s *Store) UpdateProgress(ctx context.Context, id string, processed int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET processed = ?, last_heartbeat = ? WHERE id = ? AND status = ?`,
		processed, now, id, StatusRunning,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Heartbeat refreshes a running job's liveness timestamp.
func (s *Store) Heartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET last_heartbeat = ? WHERE id = ? AND status = ?`,
		now, id, StatusRunning,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// Finalize moves a job into a terminal status exactly once. Finalizing an
// already-terminal job is a no-op (the first terminal status wins).
func (s *Store) Finalize(ctx context.Context, id string, status Status, processed int, errorMessage string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finalize: %q is not a terminal status", status)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, processed = ?, error_message = ?, finished_at = ?, last_heartbeat = NULL
         WHERE id = ? AND status IN (?, ?)`,
		status, processed, nullableString(errorMessage), now, id, StatusQueued, StatusRunning,
	); err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	return nil
}

// ReclaimStale requeues running jobs whose heartbeat predates cutoff. These
// are jobs whose worker died mid-batch; requeueing them preserves the
// at-least-once model (completed items are skipped on the re-run, and cache
// hits make repeated classification cheap).
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, started_at = NULL, last_heartbeat = NULL
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusQueued, StatusRunning, cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	reclaimed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: rows affected: %w", err)
	}
	return reclaimed, nil
}

// Stats returns job counts per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			stats[parsed] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job stats: %w", err)
	}
	return stats, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              string
		statusStr       string
		detailJSON      string
		trackCount      int
		processed       int
		cancelRequested sql.NullInt64
		errorMessage    sql.NullString
		createdRaw      sql.NullString
		startedRaw      sql.NullString
		finishedRaw     sql.NullString
		heartbeatRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&detailJSON,
		&trackCount,
		&processed,
		&cancelRequested,
		&errorMessage,
		&createdRaw,
		&startedRaw,
		&finishedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	var detail tags.DetailConfig
	if err := json.Unmarshal([]byte(detailJSON), &detail); err != nil {
		return nil, fmt.Errorf("decode detail config: %w", err)
	}

	job := &Job{
		ID:              id,
		Status:          Status(statusStr),
		Detail:          detail,
		TrackCount:      trackCount,
		Processed:       processed,
		CancelRequested: cancelRequested.Int64 != 0,
		ErrorMessage:    errorMessage.String,
		StartedAt:       parseNullableTime(startedRaw),
		FinishedAt:      parseNullableTime(finishedRaw),
		LastHeartbeat:   parseNullableTime(heartbeatRaw),
	}
	if created := parseNullableTime(createdRaw); created != nil {
		job.CreatedAt = *created
	}
	return job, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2-1)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
