package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"taggenius/internal/tags"
)

const itemColumns = "job_id, position, title, artist, genre_hint, year, state, cache_hit, rendered, error_message, updated_at"

// Items returns a job's items in submission order.
func (s *Store) Items(ctx context.Context, jobID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM job_items WHERE job_id = ? ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job items: %w", err)
	}
	return items, nil
}

// RecordItemResult persists one item's terminal outcome. Rendered must be
// non-nil for completed items and nil for failed ones.
func (s *Store) RecordItemResult(ctx context.Context, jobID string, position int, state ItemState, cacheHit bool, rendered *tags.RenderedTagSet, errorMessage string) error {
	var renderedJSON any
	if rendered != nil {
		encoded, err := json.Marshal(rendered)
		if err != nil {
			return fmt.Errorf("encode rendered tags: %w", err)
		}
		renderedJSON = string(encoded)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE job_items SET state = ?, cache_hit = ?, rendered = ?, error_message = ?, updated_at = ?
         WHERE job_id = ? AND position = ?`,
		state, boolToInt(cacheHit), renderedJSON, nullableString(errorMessage), now, jobID, position,
	); err != nil {
		return fmt.Errorf("record item result: %w", err)
	}
	return nil
}

// Output returns the ordered per-item results for a job. Items that never ran
// (cancelled mid-batch) remain pending with no rendered payload.
func (s *Store) Output(ctx context.Context, jobID string) ([]Item, error) {
	return s.Items(ctx, jobID)
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (Item, error) {
	var (
		jobID        string
		position     int
		title        string
		artist       sql.NullString
		genreHint    sql.NullString
		year         sql.NullString
		stateStr     string
		cacheHit     sql.NullInt64
		renderedRaw  sql.NullString
		errorMessage sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&jobID,
		&position,
		&title,
		&artist,
		&genreHint,
		&year,
		&stateStr,
		&cacheHit,
		&renderedRaw,
		&errorMessage,
		&updatedRaw,
	); err != nil {
		return Item{}, err
	}

	item := Item{
		JobID:    jobID,
		Position: position,
		Descriptor: tags.TrackDescriptor{
			Title:     title,
			Artist:    artist.String,
			GenreHint: genreHint.String,
			Year:      year.String,
		},
		State:        ItemState(stateStr),
		CacheHit:     cacheHit.Int64 != 0,
		ErrorMessage: errorMessage.String,
		UpdatedAt:    parseNullableTime(updatedRaw),
	}
	if renderedRaw.Valid && renderedRaw.String != "" {
		var rendered tags.RenderedTagSet
		if err := json.Unmarshal([]byte(renderedRaw.String), &rendered); err != nil {
			return Item{}, fmt.Errorf("decode rendered tags: %w", err)
		}
		item.Rendered = &rendered
	}
	return item, nil
}
