package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/domain"
	"github.com/protein-design-studio/internal/events"
	"github.com/protein-design-studio/pkg/designspec"
	"github.com/protein-design-studio/pkg/pipeline"
)

// DesignService coordinates the design workflow: spec validation, upload
// checks against the inference backend, job creation and submission, and
// reporting on results and lifecycle events.
type DesignService struct {
	logger  *logrus.Logger
	repo    domain.JobRepository
	backend domain.PipelineBackend
	store   domain.UploadStore
	events  events.Store
	watcher *pipeline.Watcher
}

// NewDesignService creates a design service. watcher may be nil, in which
// case submitted jobs are not followed to completion.
func NewDesignService(
	logger *logrus.Logger,
	repo domain.JobRepository,
	backend domain.PipelineBackend,
	store domain.UploadStore,
	eventStore events.Store,
	watcher *pipeline.Watcher,
) *DesignService {
	return &DesignService{
		logger:  logger,
		repo:    repo,
		backend: backend,
		store:   store,
		events:  eventStore,
		watcher: watcher,
	}
}

// ValidateSpec runs exhaustive schema validation over a design document.
func (s *DesignService) ValidateSpec(content string) designspec.ValidationResult {
	return designspec.Validate(content)
}

// CleanSpec sanitizes a design document and reports its validity.
func (s *DesignService) CleanSpec(content string) designspec.CleanResult {
	return designspec.ValidateAndClean(content)
}

// CheckSpec validates an uploaded design document locally, then forwards
// it to the inference backend's check endpoint. Local validation failures
// are reported as a failed check rather than an error.
func (s *DesignService) CheckSpec(ctx context.Context, input *domain.DesignInput) (*domain.CheckReport, error) {
	logger := s.logger.WithField("input", input.InputYAMLFilename)

	uploadPath, _, err := s.store.Resolve("uploads/" + input.InputYAMLFilename)
	if err != nil {
		return nil, fmt.Errorf("uploaded spec %s: %w", input.InputYAMLFilename, err)
	}

	content, err := os.ReadFile(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded spec: %w", err)
	}

	if result := designspec.Validate(string(content)); !result.IsValid {
		logger.WithField("errors", len(result.Errors)).Info("Design spec failed local validation")
		return &domain.CheckReport{
			CheckPassed: false,
			Output:      strings.Join(result.Errors, "\n"),
		}, nil
	}

	report, err := s.backend.CheckSpec(ctx, input.InputYAMLFilename)
	if err != nil {
		return nil, fmt.Errorf("backend check failed: %w", err)
	}

	logger.WithField("check_passed", report.CheckPassed).Info("Design spec check completed")
	return report, nil
}

// CreateJob records a new design job, submits it to the inference backend,
// and starts following its status. The job is returned in pending state;
// progress is reported through the event log and status stream.
func (s *DesignService) CreateJob(ctx context.Context, input *domain.DesignInput) (*domain.DesignJob, error) {
	if _, _, err := s.store.Resolve("uploads/" + input.InputYAMLFilename); err != nil {
		return nil, fmt.Errorf("uploaded spec %s: %w", input.InputYAMLFilename, err)
	}

	now := time.Now()
	job := &domain.DesignJob{
		ID:                uuid.New(),
		InputYAMLFilename: input.InputYAMLFilename,
		ProtocolName:      input.ProtocolName,
		NumDesigns:        input.NumDesigns,
		Budget:            input.Budget,
		PipelineName:      input.PipelineName,
		Status:            domain.JobPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create design job: %w", err)
	}

	event := &domain.JobEvent{
		JobID:     job.ID,
		Status:    domain.JobPending,
		Message:   "job created",
		CreatedAt: now,
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to record creation event")
	}

	if err := s.backend.Submit(ctx, job); err != nil {
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, domain.JobFailed); updateErr != nil {
			s.logger.WithError(updateErr).WithField("job_id", job.ID).Error("Failed to mark job as failed")
		}
		return nil, fmt.Errorf("failed to submit design job: %w", err)
	}

	if s.watcher != nil {
		s.watcher.Watch(context.WithoutCancel(ctx), job)
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"protocol":    job.ProtocolName,
		"num_designs": job.NumDesigns,
		"budget":      job.Budget,
	}).Info("Design job submitted")

	return job, nil
}

// ListJobs returns all design jobs, newest first.
func (s *DesignService) ListJobs(ctx context.Context) ([]*domain.DesignJob, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list design jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns a single design job by ID.
func (s *DesignService) GetJob(ctx context.Context, id uuid.UUID) (*domain.DesignJob, error) {
	return s.repo.GetByID(ctx, id)
}

// JobResults lists the output artifacts of a job. Jobs that have not yet
// produced output yield an empty list.
func (s *DesignService) JobResults(ctx context.Context, id uuid.UUID) ([]domain.ResultFile, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.store.Results(job)
	if err != nil {
		return nil, fmt.Errorf("failed to scan results for job %s: %w", id, err)
	}
	return files, nil
}

// JobEvents returns a job's lifecycle event log in append order.
func (s *DesignService) JobEvents(ctx context.Context, id uuid.UUID) ([]*domain.JobEvent, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByJob(ctx, id)
}
