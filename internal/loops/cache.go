package loops

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "loops:summary:version"

// SummaryCache caches computed progress summaries in Redis. A nil cache
// degrades to always recomputing.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache instantiates the cache helper.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func (c *SummaryCache) key(ctx context.Context, orgID string) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{"loops", "summary", orgID, ver}, ":"), nil
}

func (c *SummaryCache) version(ctx context.Context) (string, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Result()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, "1", 0).Err(); err != nil {
			return "", err
		}
		return "1", nil
	}
	if err != nil {
		return "", err
	}
	return ver, nil
}

// Fetch loads the cached summary for an organization or populates it via
// the loader.
func (c *SummaryCache) Fetch(ctx context.Context, orgID string, loader func(context.Context) (ProgressSummary, error)) (ProgressSummary, error) {
	if loader == nil {
		return ProgressSummary{}, errors.New("loops cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.key(ctx, orgID)
	if err != nil {
		return ProgressSummary{}, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var summary ProgressSummary
		if err := json.Unmarshal(payload, &summary); err == nil {
			return summary, nil
		}
	} else if err != redis.Nil {
		return ProgressSummary{}, err
	}

	summary, err := loader(ctx)
	if err != nil {
		return ProgressSummary{}, err
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return ProgressSummary{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return ProgressSummary{}, err
	}
	return summary, nil
}

// Bump invalidates all cached summaries by rotating the version.
func (c *SummaryCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
