package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protein-design-studio/internal/domain"
)

type fakeBackend struct {
	mu       sync.Mutex
	statuses []domain.JobStatus
	index    int
}

func (f *fakeBackend) CheckSpec(ctx context.Context, yamlFilename string) (*domain.CheckReport, error) {
	return &domain.CheckReport{CheckPassed: true}, nil
}

func (f *fakeBackend) Submit(ctx context.Context, job *domain.DesignJob) error { return nil }

func (f *fakeBackend) Status(ctx context.Context, jobID uuid.UUID) (domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[f.index]
	if f.index < len(f.statuses)-1 {
		f.index++
	}
	return status, nil
}

type fakeRepo struct {
	mu       sync.Mutex
	statuses []domain.JobStatus
	runTime  *int64
}

func (f *fakeRepo) Create(ctx context.Context, job *domain.DesignJob) error { return nil }

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DesignJob, error) {
	return nil, domain.ErrJobNotFound
}

func (f *fakeRepo) List(ctx context.Context) ([]*domain.DesignJob, error) { return nil, nil }

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRepo) SetRunTime(ctx context.Context, id uuid.UUID, seconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runTime = &seconds
	return nil
}

func (f *fakeRepo) recorded() []domain.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.JobStatus(nil), f.statuses...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*domain.JobEvent
}

func (f *fakeEvents) Append(ctx context.Context, event *domain.JobEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.JobEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.JobEvent(nil), f.events...), nil
}

func (f *fakeEvents) Recent(ctx context.Context, limit, offset int) ([]*domain.JobEvent, error) {
	return nil, nil
}

func (f *fakeEvents) Count(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeEvents) ExportJSON(ctx context.Context, w io.Writer) error { return nil }

func (f *fakeEvents) ImportJSON(ctx context.Context, r io.Reader) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeEvents) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestWatcher_FollowsJobToCompletion(t *testing.T) {
	backend := &fakeBackend{statuses: []domain.JobStatus{
		domain.JobPending,
		domain.JobRunning,
		domain.JobCompleted,
	}}
	repo := &fakeRepo{}
	eventStore := &fakeEvents{}

	watcher := NewWatcher(backend, repo, eventStore, nil, 10*time.Millisecond, quietLogger())
	defer watcher.Close()

	job := &domain.DesignJob{
		ID:        uuid.New(),
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	}
	watcher.Watch(context.Background(), job)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.runTime != nil
	}, 2*time.Second, 10*time.Millisecond, "watcher never recorded a run time")

	// Pending was the starting status, so only the transitions are persisted.
	assert.Equal(t, []domain.JobStatus{domain.JobRunning, domain.JobCompleted}, repo.recorded())

	history, err := eventStore.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.JobRunning, history[0].Status)
	assert.Equal(t, domain.JobCompleted, history[1].Status)
}

func TestWatcher_CloseStopsFollowing(t *testing.T) {
	backend := &fakeBackend{statuses: []domain.JobStatus{domain.JobRunning}}
	repo := &fakeRepo{}
	eventStore := &fakeEvents{}

	watcher := NewWatcher(backend, repo, eventStore, nil, 10*time.Millisecond, quietLogger())

	job := &domain.DesignJob{ID: uuid.New(), Status: domain.JobPending, CreatedAt: time.Now()}
	watcher.Watch(context.Background(), job)

	// The job never reaches a terminal state; Close must still return.
	done := make(chan struct{})
	go func() {
		watcher.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the follower")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Nil(t, repo.runTime, "a non-terminal job must not get a run time")
}
