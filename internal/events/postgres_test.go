package events

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protein-design-studio/internal/domain"
)

// getTestDB returns a database connection for testing.
// Skip test if TEST_DATABASE_URL is not set.
func getTestDB(t *testing.T) *sql.DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	// Create event table for testing
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS job_events (
			id BIGSERIAL PRIMARY KEY,
			job_id TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	require.NoError(t, err)

	// Clean up before test
	_, err = db.Exec("DELETE FROM job_events")
	require.NoError(t, err)

	return db
}

func TestPostgresStore_Append(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	ev := &domain.JobEvent{
		JobID:   uuid.New(),
		Status:  domain.JobPending,
		Message: "job accepted",
	}

	err = store.Append(ctx, ev)
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.NotZero(t, ev.CreatedAt)
}

func TestPostgresStore_ListByJob(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	jobID := uuid.New()

	// Unknown jobs yield an empty history
	history, err := store.ListByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Empty(t, history)

	statuses := []domain.JobStatus{domain.JobPending, domain.JobRunning, domain.JobCompleted}
	for _, status := range statuses {
		err = store.Append(ctx, &domain.JobEvent{JobID: jobID, Status: status})
		require.NoError(t, err)
	}

	// Events from another job must not leak in
	err = store.Append(ctx, &domain.JobEvent{JobID: uuid.New(), Status: domain.JobFailed})
	require.NoError(t, err)

	history, err = store.ListByJob(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, status := range statuses {
		assert.Equal(t, status, history[i].Status)
	}
}

func TestPostgresStore_Recent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err = store.Append(ctx, &domain.JobEvent{JobID: uuid.New(), Status: domain.JobPending})
		require.NoError(t, err)
	}

	// Test pagination
	list, err := store.Recent(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = store.Recent(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPostgresStore_Count(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	ctx := context.Background()

	// Initially empty
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	for i := 0; i < 3; i++ {
		err = store.Append(ctx, &domain.JobEvent{JobID: uuid.New(), Status: domain.JobRunning})
		require.NoError(t, err)
	}

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
