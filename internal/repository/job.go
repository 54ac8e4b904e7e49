package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/domain"
)

// JobRepository handles design job persistence
type JobRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewJobRepository creates a new design job repository
func NewJobRepository(db *pgxpool.Pool, logger *logrus.Logger) *JobRepository {
	return &JobRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new design job into the database
func (r *JobRepository) Create(ctx context.Context, job *domain.DesignJob) error {
	query := `
		INSERT INTO design_jobs (
			id, input_yaml_filename, protocol_name, num_designs, budget,
			pipeline_name, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.InputYAMLFilename,
		job.ProtocolName,
		job.NumDesigns,
		job.Budget,
		job.PipelineName,
		job.Status,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id":   job.ID,
			"protocol": job.ProtocolName,
			"error":    err,
		}).Error("Failed to create design job")
		return fmt.Errorf("creating design job: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"protocol": job.ProtocolName,
		"input":    job.InputYAMLFilename,
	}).Info("Design job created successfully")

	return nil
}

// GetByID retrieves a design job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DesignJob, error) {
	query := `
		SELECT id, input_yaml_filename, protocol_name, num_designs, budget,
			   pipeline_name, status, run_time_in_seconds, created_at, updated_at
		FROM design_jobs
		WHERE id = $1`

	var job domain.DesignJob

	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.InputYAMLFilename,
		&job.ProtocolName,
		&job.NumDesigns,
		&job.Budget,
		&job.PipelineName,
		&job.Status,
		&job.RunTimeSeconds,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("design job %s: %w", id, domain.ErrJobNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"job_id": id,
			"error":  err,
		}).Error("Failed to get design job by ID")
		return nil, fmt.Errorf("getting design job by ID: %w", err)
	}

	return &job, nil
}

// List retrieves all design jobs, newest first
func (r *JobRepository) List(ctx context.Context) ([]*domain.DesignJob, error) {
	query := `
		SELECT id, input_yaml_filename, protocol_name, num_designs, budget,
			   pipeline_name, status, run_time_in_seconds, created_at, updated_at
		FROM design_jobs
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to list design jobs")
		return nil, fmt.Errorf("listing design jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.DesignJob
	for rows.Next() {
		var job domain.DesignJob

		err := rows.Scan(
			&job.ID,
			&job.InputYAMLFilename,
			&job.ProtocolName,
			&job.NumDesigns,
			&job.Budget,
			&job.PipelineName,
			&job.Status,
			&job.RunTimeSeconds,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			r.log.WithError(err).Error("Failed to scan design job row")
			return nil, fmt.Errorf("scanning design job row: %w", err)
		}

		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating design job rows: %w", err)
	}

	return jobs, nil
}

// UpdateStatus transitions a design job to a new status
func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	query := `
		UPDATE design_jobs
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": id,
			"status": status,
			"error":  err,
		}).Error("Failed to update design job status")
		return fmt.Errorf("updating design job status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("design job %s: %w", id, domain.ErrJobNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"job_id": id,
		"status": status,
	}).Info("Design job status updated")

	return nil
}

// SetRunTime records the total wall-clock run time of a completed job
func (r *JobRepository) SetRunTime(ctx context.Context, id uuid.UUID, seconds int64) error {
	query := `
		UPDATE design_jobs
		SET run_time_in_seconds = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, seconds)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": id,
			"error":  err,
		}).Error("Failed to set design job run time")
		return fmt.Errorf("setting design job run time: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("design job %s: %w", id, domain.ErrJobNotFound)
	}

	return nil
}
