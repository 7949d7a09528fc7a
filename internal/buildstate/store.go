package buildstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is the cached state of one written document.
type Entry struct {
	SourcePath  string
	Fingerprint string
	ConfigHash  string
	OutputPath  string
	UpdatedAt   time.Time
}

// Status is the outcome of a build.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Build is one journal row.
type Build struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Documents  int
	Written    int
	Skipped    int
	Warnings   int
	Error      string
}

// Store implements the rebuild cache using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the state database. Use ":memory:" for a
// throwaway store.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		source_path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		output_path TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status TEXT NOT NULL,
		documents INTEGER NOT NULL DEFAULT 0,
		written INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the cached entry for sourcePath, or false when none exists.
func (s *Store) Lookup(ctx context.Context, sourcePath string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e Entry
	var updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT source_path, fingerprint, config_hash, output_path, updated_at FROM documents WHERE source_path = ?",
		sourcePath,
	).Scan(&e.SourcePath, &e.Fingerprint, &e.ConfigHash, &e.OutputPath, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query document: %w", err)
	}
	e.UpdatedAt = time.Unix(updated, 0)
	return e, true, nil
}

// Unchanged reports whether sourcePath was last written with the same
// fingerprint and configuration snapshot.
func (s *Store) Unchanged(ctx context.Context, sourcePath, fingerprint, configHash string) (bool, error) {
	e, ok, err := s.Lookup(ctx, sourcePath)
	if err != nil || !ok {
		return false, err
	}
	return e.Fingerprint == fingerprint && e.ConfigHash == configHash, nil
}

// Record stores the state of a written document.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (source_path, fingerprint, config_hash, output_path, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			config_hash = excluded.config_hash,
			output_path = excluded.output_path,
			updated_at = excluded.updated_at`,
		e.SourcePath, e.Fingerprint, e.ConfigHash, e.OutputPath, e.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Forget drops the cached state of sourcePath so it is rebuilt next time.
func (s *Store) Forget(ctx context.Context, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE source_path = ?", sourcePath); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// BeginBuild opens a journal row and returns its ID.
func (s *Store) BeginBuild(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, status) VALUES (?, ?, ?)",
		id, time.Now().UnixNano(), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert build: %w", err)
	}
	return id, nil
}

// FinishBuild completes the journal row b.ID.
func (s *Store) FinishBuild(ctx context.Context, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.FinishedAt.IsZero() {
		b.FinishedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE builds SET finished_at = ?, status = ?, documents = ?, written = ?, skipped = ?, warnings = ?, error = ?
		WHERE id = ?`,
		b.FinishedAt.UnixNano(), b.Status, b.Documents, b.Written, b.Skipped, b.Warnings, b.Error, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update build: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("build %s not found", b.ID)
	}
	return nil
}

// Builds returns the most recent journal rows, newest first.
func (s *Store) Builds(ctx context.Context, limit int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, 0), status, documents, written, skipped, warnings, COALESCE(error, '')
		FROM builds ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []Build
	for rows.Next() {
		var b Build
		var started, finished int64
		if err := rows.Scan(&b.ID, &started, &finished, &b.Status, &b.Documents, &b.Written, &b.Skipped, &b.Warnings, &b.Error); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.StartedAt = time.Unix(0, started)
		if finished > 0 {
			b.FinishedAt = time.Unix(0, finished)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return builds, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
