package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/protein-design-studio/internal/domain"
)

// ResilientBackend wraps the backend client with a circuit breaker and a
// check report cache. Spec checks fall back to cached reports while the
// breaker is open; job submission and status queries fail fast instead.
type ResilientBackend struct {
	client  *Client
	cache   *CheckCache
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewResilientBackend creates a resilient inference backend client.
func NewResilientBackend(pipelineConfig domain.PipelineConfig, cacheConfig domain.CacheConfig, logger *logrus.Logger) (*ResilientBackend, error) {
	cache, err := NewCheckCache(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create check cache: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "InferenceBackend",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientBackend{
		client:  NewClient(pipelineConfig),
		cache:   cache,
		breaker: breaker,
		log:     logger,
	}, nil
}

// CheckSpec checks a design document with circuit breaker and caching.
func (r *ResilientBackend) CheckSpec(ctx context.Context, yamlFilename string) (*domain.CheckReport, error) {
	// Check cache first
	if report, found, err := r.cache.Get(ctx, yamlFilename); err == nil && found {
		return report, nil
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.CheckSpec(ctx, yamlFilename)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			if report, found, cacheErr := r.cache.Get(ctx, yamlFilename); cacheErr == nil && found {
				return report, nil
			}
			return nil, fmt.Errorf("inference backend unavailable (circuit breaker open)")
		}
		return nil, fmt.Errorf("design spec check failed: %w", err)
	}

	report := result.(*domain.CheckReport)

	if cacheErr := r.cache.Set(ctx, yamlFilename, report, 0); cacheErr != nil {
		r.log.WithError(cacheErr).Warn("Failed to cache check report")
	}

	return report, nil
}

// Submit starts a design run with circuit breaker protection. Submissions
// are never cached.
func (r *ResilientBackend) Submit(ctx context.Context, job *domain.DesignJob) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Submit(ctx, job)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			return fmt.Errorf("inference backend unavailable (circuit breaker open)")
		}
		return fmt.Errorf("design job submission failed: %w", err)
	}
	return nil
}

// Status queries a job's status with circuit breaker protection.
func (r *ResilientBackend) Status(ctx context.Context, jobID uuid.UUID) (domain.JobStatus, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Status(ctx, jobID)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", fmt.Errorf("inference backend unavailable (circuit breaker open)")
		}
		return "", fmt.Errorf("job status query failed: %w", err)
	}

	return result.(domain.JobStatus), nil
}

// BreakerCounts returns the circuit breaker's request counters.
func (r *ResilientBackend) BreakerCounts() gobreaker.Counts {
	return r.breaker.Counts()
}

// BreakerState returns the circuit breaker's current state.
func (r *ResilientBackend) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// InvalidateCheck drops the cached check report for a document.
func (r *ResilientBackend) InvalidateCheck(ctx context.Context, yamlFilename string) error {
	return r.cache.Invalidate(ctx, yamlFilename)
}

// Close closes the cache connection.
func (r *ResilientBackend) Close() error {
	return r.cache.Close()
}
