package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/protein-design-studio/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL event store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL event store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Append records one lifecycle event for a job.
func (s *PostgresStore) Append(ctx context.Context, event *domain.JobEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO job_events (job_id, status, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		event.JobID.String(),
		string(event.Status),
		event.Message,
		event.CreatedAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// ListByJob returns a job's events in the order they were recorded.
func (s *PostgresStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.JobEvent, error) {
	query := `
		SELECT id, job_id, status, message, created_at
		FROM job_events
		WHERE job_id = $1
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Recent returns the newest events across all jobs with pagination.
func (s *PostgresStore) Recent(ctx context.Context, limit, offset int) ([]*domain.JobEvent, error) {
	query := `
		SELECT id, job_id, status, message, created_at
		FROM job_events
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]*domain.JobEvent, error) {
	var result []*domain.JobEvent
	for rows.Next() {
		ev := &domain.JobEvent{}
		var jobID, status string

		err := rows.Scan(&ev.ID, &jobID, &status, &ev.Message, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		id, err := uuid.Parse(jobID)
		if err != nil {
			return nil, fmt.Errorf("invalid job id %q: %w", jobID, err)
		}
		ev.JobID = id
		ev.Status = domain.JobStatus(status)
		result = append(result, ev)
	}

	return result, rows.Err()
}

// Count returns the total number of recorded events.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// maxExportLimit is the maximum number of entries to export at once.
const pgMaxExportLimit = 1000000

// ExportJSON exports all events to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.Recent(ctx, pgMaxExportLimit, 0)
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
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export EventExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, ev := range export.Events {
		var existing int64
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM job_events WHERE job_id = $1 AND status = $2 AND created_at = $3",
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
