package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/domain"
	"github.com/protein-design-studio/internal/events"
)

// Watcher follows submitted jobs to completion. It polls the backend for
// each job's status, mirrors transitions into the repository and event log,
// and records the total run time when a job reaches a terminal state.
type Watcher struct {
	backend  domain.PipelineBackend
	repo     domain.JobRepository
	events   events.Store
	hub      *Hub
	interval time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	wg      sync.WaitGroup
	cancels map[string]context.CancelFunc
}

// NewWatcher creates a job watcher. hub may be nil when no live
// subscribers are served.
func NewWatcher(backend domain.PipelineBackend, repo domain.JobRepository, eventStore events.Store, hub *Hub, interval time.Duration, logger *logrus.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		backend:  backend,
		repo:     repo,
		events:   eventStore,
		hub:      hub,
		interval: interval,
		log:      logger,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Watch starts following a job in the background and returns immediately.
// Polling stops when the job reaches a terminal state or the watcher is
// closed.
func (w *Watcher) Watch(ctx context.Context, job *domain.DesignJob) {
	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.cancels[job.ID.String()] = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.cancels, job.ID.String())
			w.mu.Unlock()
			cancel()
		}()
		w.follow(ctx, job)
	}()
}

// Close stops all followers and waits for them to drain.
func (w *Watcher) Close() {
	w.mu.Lock()
	for _, cancel := range w.cancels {
		cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) follow(ctx context.Context, job *domain.DesignJob) {
	logger := w.log.WithField("job_id", job.ID)
	last := job.Status

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Job watcher stopped")
			return
		case <-ticker.C:
		}

		status, err := w.backend.Status(ctx, job.ID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Warn("Job status poll failed")
			continue
		}

		if status == last {
			continue
		}

		w.transition(ctx, job, status)
		last = status

		if status.Terminal() {
			w.recordRunTime(ctx, job)
			if w.hub != nil {
				w.hub.CloseJob(job.ID)
			}
			logger.WithField("status", status).Info("Design job finished")
			return
		}
	}
}

func (w *Watcher) transition(ctx context.Context, job *domain.DesignJob, status domain.JobStatus) {
	logger := w.log.WithFields(logrus.Fields{"job_id": job.ID, "status": status})

	if err := w.repo.UpdateStatus(ctx, job.ID, status); err != nil {
		logger.WithError(err).Error("Failed to persist job status")
	}

	event := &domain.JobEvent{
		JobID:     job.ID,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := w.events.Append(ctx, event); err != nil {
		logger.WithError(err).Error("Failed to record job event")
	}

	if w.hub != nil {
		w.hub.Broadcast(event)
	}
}

func (w *Watcher) recordRunTime(ctx context.Context, job *domain.DesignJob) {
	seconds := int64(time.Since(job.CreatedAt) / time.Second)
	if err := w.repo.SetRunTime(ctx, job.ID, seconds); err != nil {
		w.log.WithFields(logrus.Fields{
			"job_id": job.ID,
			"error":  err,
		}).Error("Failed to record job run time")
	}
}
