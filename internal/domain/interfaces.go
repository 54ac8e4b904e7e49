package domain

import (
	"context"

	"github.com/google/uuid"
)

// JobRepository defines the interface for design job persistence
type JobRepository interface {
	Create(ctx context.Context, job *DesignJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*DesignJob, error)
	List(ctx context.Context) ([]*DesignJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status JobStatus) error
	SetRunTime(ctx context.Context, id uuid.UUID, seconds int64) error
}

// PipelineBackend is the inference backend consumed over HTTP. It checks
// design specs, runs design jobs, and reports their progress.
type PipelineBackend interface {
	CheckSpec(ctx context.Context, yamlFilename string) (*CheckReport, error)
	Submit(ctx context.Context, job *DesignJob) error
	Status(ctx context.Context, jobID uuid.UUID) (JobStatus, error)
}

// UploadStore persists uploaded documents and serves job artifacts
type UploadStore interface {
	Save(originalName string, data []byte) (storedName string, err error)
	Resolve(relPath string) (absPath string, contentType string, err error)
	Results(job *DesignJob) ([]ResultFile, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetStorageConfig() *StorageConfig
	GetPipelineConfig() *PipelineConfig
	Validate() error
	GetDatabaseConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
