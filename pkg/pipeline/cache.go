package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/protein-design-studio/internal/domain"
)

// CheckCache caches spec check reports. Checking an unchanged document is
// expensive on the backend, so reports are kept in Redis with a small
// in-process LRU in front of it.
type CheckCache struct {
	redis      *redis.Client
	local      *lru.Cache[string, *domain.CheckReport]
	defaultTTL time.Duration
}

// cachedReport is the Redis wire format, carrying its own expiry so stale
// entries are dropped even if Redis persistence outlives the TTL.
type cachedReport struct {
	Report    *domain.CheckReport `json:"report"`
	CachedAt  time.Time           `json:"cached_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// NewCheckCache creates a check report cache.
func NewCheckCache(config domain.CacheConfig) (*CheckCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	localSize := config.LocalSize
	if localSize <= 0 {
		localSize = 256
	}
	local, err := lru.New[string, *domain.CheckReport](localSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	return &CheckCache{
		redis:      client,
		local:      local,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// Get retrieves a cached check report for a stored document.
func (c *CheckCache) Get(ctx context.Context, yamlFilename string) (*domain.CheckReport, bool, error) {
	key := reportKey(yamlFilename)

	if report, ok := c.local.Get(key); ok {
		return report, true, nil
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get check report cache: %w", err)
	}

	var cached cachedReport
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	c.local.Add(key, cached.Report)
	return cached.Report, true, nil
}

// Set caches a check report. A zero ttl uses the configured default.
func (c *CheckCache) Set(ctx context.Context, yamlFilename string, report *domain.CheckReport, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	key := reportKey(yamlFilename)
	c.local.Add(key, report)

	cached := cachedReport{
		Report:    report,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal check report: %w", err)
	}

	return c.redis.Set(ctx, key, jsonData, ttl).Err()
}

// Invalidate drops the cached report for a stored document.
func (c *CheckCache) Invalidate(ctx context.Context, yamlFilename string) error {
	key := reportKey(yamlFilename)
	c.local.Remove(key)
	return c.redis.Del(ctx, key).Err()
}

// Ping checks if the Redis connection is alive.
func (c *CheckCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *CheckCache) Close() error {
	return c.redis.Close()
}

// reportKey derives a stable cache key from the stored filename. Uploads are
// content-addressed by their unique prefix, so the filename identifies the
// document contents.
func reportKey(yamlFilename string) string {
	hash := sha256.Sum256([]byte(yamlFilename))
	return fmt.Sprintf("check:report:%x", hash[:8])
}
