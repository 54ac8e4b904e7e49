// Package events provides persistent storage for design job lifecycle
// events. Every status transition a job goes through is appended here so the
// front-end can replay a job's history after a reload.
package events

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/protein-design-studio/internal/domain"
)

// Store defines the interface for job event log storage.
type Store interface {
	// Append records one lifecycle event for a job.
	Append(ctx context.Context, event *domain.JobEvent) error

	// ListByJob returns a job's events in the order they were recorded.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.JobEvent, error)

	// Recent returns the newest events across all jobs with pagination.
	Recent(ctx context.Context, limit, offset int) ([]*domain.JobEvent, error)

	// Count returns the total number of recorded events.
	Count(ctx context.Context) (int64, error)

	// ExportJSON exports all events to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports events from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// EventExport represents the JSON export format.
type EventExport struct {
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Count      int                `json:"count"`
	Events     []*domain.JobEvent `json:"events"`
}
