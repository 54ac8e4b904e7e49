package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/protein-design-studio/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite event store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	// Create schema
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEvent scans a row into a JobEvent struct.
func scanEvent(s scanner) (*domain.JobEvent, error) {
	ev := &domain.JobEvent{}
	var jobID, status string

	err := s.Scan(&ev.ID, &jobID, &status, &ev.Message, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job id %q: %w", jobID, err)
	}
	ev.JobID = id
	ev.Status = domain.JobStatus(status)
	return ev, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS job_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_job_events_job_id ON job_events(job_id);
	CREATE INDEX IF NOT EXISTS idx_job_events_created_at ON job_events(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Append records one lifecycle event for a job.
func (s *SQLiteStore) Append(ctx context.Context, event *domain.JobEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO job_events (job_id, status, message, created_at)
		VALUES (?, ?, ?, ?)
	`,
		event.JobID.String(),
		string(event.Status),
		event.Message,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	event.ID = id

	return nil
}

// ListByJob returns a job's events in the order they were recorded.
func (s *SQLiteStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.JobEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, status, message, created_at
		FROM job_events
		WHERE job_id = ?
		ORDER BY id ASC
	`, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.JobEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

// Recent returns the newest events across all jobs with pagination.
func (s *SQLiteStore) Recent(ctx context.Context, limit, offset int) ([]*domain.JobEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, status, message, created_at
		FROM job_events
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.JobEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

// Count returns the total number of recorded events.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_events").Scan(&count)
	return count, err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all events to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.Recent(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	export := &EventExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Events:     all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports events from a JSON reader. Entries matching an already
// recorded (job, status, timestamp) triple are skipped.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export EventExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, ev := range export.Events {
		var existing int64
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM job_events WHERE job_id = ? AND status = ? AND created_at = ?",
			ev.JobID.String(), string(ev.Status), ev.CreatedAt,
		).Scan(&existing)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing > 0 {
			skipped++
			continue
		}

		if err := s.Append(ctx, ev); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
