// Package pipeline talks to the inference backend that checks design specs
// and runs design jobs. The backend shares the storage root with this server:
// inputs are referenced by their stored upload filename and outputs appear
// under the job's output tree.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/protein-design-studio/internal/domain"
)

// Client is the plain HTTP client for the inference backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCount int
}

// NewClient creates a new inference backend client.
func NewClient(config domain.PipelineConfig) *Client {
	limit := rate.Limit(config.RateLimit)
	if config.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:    rate.NewLimiter(limit, 1),
		retryCount: config.RetryCount,
	}
}

// checkRequest is the payload for a spec check run.
type checkRequest struct {
	InputYAMLFilename string `json:"input_yaml_filename"`
}

// submitRequest is the payload for a full design run.
type submitRequest struct {
	JobID             string `json:"job_id"`
	InputYAMLFilename string `json:"input_yaml_filename"`
	Protocol          string `json:"protocol"`
	NumDesigns        int    `json:"num_designs"`
	Budget            int    `json:"budget"`
}

// statusResponse is the backend's job status report.
type statusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// CheckSpec asks the backend to check a stored design document and render
// its visualization CIF into the checks folder.
func (c *Client) CheckSpec(ctx context.Context, yamlFilename string) (*domain.CheckReport, error) {
	var report domain.CheckReport
	err := c.postJSON(ctx, "/check", checkRequest{InputYAMLFilename: yamlFilename}, &report)
	if err != nil {
		return nil, fmt.Errorf("checking design spec: %w", err)
	}
	return &report, nil
}

// Submit starts a design run for the given job.
func (c *Client) Submit(ctx context.Context, job *domain.DesignJob) error {
	req := submitRequest{
		JobID:             job.ID.String(),
		InputYAMLFilename: job.InputYAMLFilename,
		Protocol:          job.ProtocolName,
		NumDesigns:        job.NumDesigns,
		Budget:            job.Budget,
	}
	if err := c.postJSON(ctx, "/run", req, nil); err != nil {
		return fmt.Errorf("submitting design job: %w", err)
	}
	return nil
}

// Status reports the backend's current status for a job.
func (c *Client) Status(ctx context.Context, jobID uuid.UUID) (domain.JobStatus, error) {
	var status statusResponse
	err := c.getJSON(ctx, "/jobs/"+jobID.String()+"/status", &status)
	if err != nil {
		return "", fmt.Errorf("querying job status: %w", err)
	}

	switch s := domain.JobStatus(status.Status); s {
	case domain.JobPending, domain.JobRunning, domain.JobCompleted, domain.JobFailed:
		return s, nil
	default:
		return "", fmt.Errorf("backend reported unknown status %q", status.Status)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do executes one request with rate limiting and bounded retries on
// transient failures.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("reading response: %w", readErr)
			continue
		}

		// Retry server-side failures; client errors are final.
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil
	}

	return lastErr
}
