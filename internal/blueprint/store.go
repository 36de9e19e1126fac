package blueprint

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"taggenius/internal/config"
	"taggenius/internal/logging"
	"taggenius/internal/tags"
)

//go:embed schema.sql
var schemaSQL string

// ErrPersist tags LookupOrGenerate errors where generation succeeded but the
// write-back failed. Callers still receive the generated blueprint and may
// proceed with it; the miss simply recurs on the next lookup.
var ErrPersist = errors.New("blueprint persist failed")

// GeneratorFunc produces a maximal-detail blueprint on a cache miss. It is
// usually bound to the classifier gateway.
type GeneratorFunc func(ctx context.Context) (tags.Blueprint, error)

// Store manages blueprint persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the blueprint database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "blueprints.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create blueprint schema: %w", err)
	}

	return &Store{
		db:     db,
		path:   dbPath,
		logger: logging.NewComponentLogger(logger, "blueprint"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached blueprint for an identity. The boolean reports
// whether a usable entry existed; entries written under an older schema
// version are treated as absent so they get regenerated wholesale.
func (s *Store) Get(ctx context.Context, id tags.Identity) (tags.Blueprint, bool, error) {
	var (
		payload       string
		schemaVersion int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, schema_version FROM blueprints WHERE identity = ?`, string(id),
	).Scan(&payload, &schemaVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return tags.Blueprint{}, false, nil
	}
	if err != nil {
		return tags.Blueprint{}, false, fmt.Errorf("get blueprint: %w", err)
	}
	if schemaVersion != tags.SchemaVersion {
		return tags.Blueprint{}, false, nil
	}

	var bp tags.Blueprint
	if err := json.Unmarshal([]byte(payload), &bp); err != nil {
		return tags.Blueprint{}, false, fmt.Errorf("decode blueprint: %w", err)
	}
	return bp, true, nil
}

// Put stores a blueprint for an identity, replacing any existing row.
func (s *Store) Put(ctx context.Context, id tags.Identity, bp tags.Blueprint) error {
	payload, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("encode blueprint: %w", err)
	}
	title, artist := id.Parts()
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO blueprints (identity, title, artist, payload, schema_version, model, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(id),
		title,
		artist,
		string(payload),
		bp.SchemaVersion,
		bp.Model,
		bp.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("store blueprint: %w", err)
	}
	return nil
}

// LookupOrGenerate returns the cached blueprint for id, invoking gen on a
// miss and persisting the result. The boolean reports a cache hit.
//
// Concurrent callers for the same never-seen identity may each invoke gen;
// both writes land on the same row so the store converges (the redundant
// classifier call is accepted, not deduplicated). If gen fails its error is
// returned and nothing is stored. If gen succeeds but persistence fails, the
// generated blueprint is returned alongside the storage error so the caller
// can proceed with the in-memory result; the miss simply recurs next time.
func (s *Store) LookupOrGenerate(ctx context.Context, id tags.Identity, gen GeneratorFunc) (tags.Blueprint, bool, error) {
	bp, ok, err := s.Get(ctx, id)
	if err != nil {
		return tags.Blueprint{}, false, err
	}
	if ok {
		s.logger.Debug("blueprint cache hit", logging.String("identity", identityLabel(id)))
		return bp, true, nil
	}

	generated, err := gen(ctx)
	if err != nil {
		return tags.Blueprint{}, false, err
	}

	if err := s.Put(ctx, id, generated); err != nil {
		return generated, false, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.logger.Debug("blueprint stored", logging.String("identity", identityLabel(id)))
	return generated, false, nil
}

// Entry is a cache listing row.
type Entry struct {
	Identity  tags.Identity
	Title     string
	Artist    string
	Model     string
	CreatedAt time.Time
}

// List returns all cache entries ordered newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity, title, artist, COALESCE(model, ''), created_at
         FROM blueprints ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			identity   string
			createdRaw string
		)
		if err := rows.Scan(&identity, &entry.Title, &entry.Artist, &entry.Model, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan blueprint entry: %w", err)
		}
		entry.Identity = tags.Identity(identity)
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blueprints: %w", err)
	}
	return entries, nil
}

// Remove deletes a single entry. The boolean reports whether a row existed.
func (s *Store) Remove(ctx context.Context, id tags.Identity) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blueprints WHERE identity = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("remove blueprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove blueprint: rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear deletes all cached blueprints and returns the removed count.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blueprints`)
	if err != nil {
		return 0, fmt.Errorf("clear blueprints: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear blueprints: rows affected: %w", err)
	}
	return removed, nil
}

// Count returns the number of cached blueprints.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM blueprints`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count blueprints: %w", err)
	}
	return count, nil
}

func identityLabel(id tags.Identity) string {
	title, artist := id.Parts()
	if artist == "" {
		return title
	}
	return artist + " - " + title
}
