package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a design job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// DesignJob is one submitted design run. The input document is referenced by
// its stored upload filename; all heavy lifting happens in the inference
// backend.
type DesignJob struct {
	ID                uuid.UUID `json:"id"`
	InputYAMLFilename string    `json:"input_yaml_filename"`
	ProtocolName      string    `json:"protocol_name"`
	NumDesigns        int       `json:"num_designs"`
	Budget            int       `json:"budget"`
	PipelineName      string    `json:"pipeline_name,omitempty"`
	Status            JobStatus `json:"status"`
	RunTimeSeconds    *int64    `json:"run_time_in_seconds,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DesignInput is the payload accepted by the design check and create
// endpoints. Field names follow the front-end's camelCase convention.
type DesignInput struct {
	InputYAMLFilename string `json:"inputYamlFilename" binding:"required"`
	CIFFileFilename   string `json:"cifFileFilename"`
	ProtocolName      string `json:"protocolName" binding:"required"`
	NumDesigns        int    `json:"numDesigns" binding:"required,min=1"`
	Budget            int    `json:"budget" binding:"required,min=1"`
	PipelineName      string `json:"pipelineName"`
}

// CheckReport is the outcome of a design spec check against the inference
// backend: a pass/fail verdict, the backend's textual output, and a reference
// to the generated visualization CIF.
type CheckReport struct {
	CheckPassed bool   `json:"check_passed"`
	CIFFilename string `json:"cif_filename"`
	CIFURL      string `json:"cif_url"`
	Output      string `json:"output"`
}

// ResultFile is one artifact produced by a completed design job.
type ResultFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// JobEvent is one entry in a job's lifecycle event log.
type JobEvent struct {
	ID        int64     `json:"id,omitempty"`
	JobID     uuid.UUID `json:"job_id"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
