// Package cache provides a Redis read cache for job status lookups. It is
// best-effort: cache misses and errors fall through to the record store, and
// the orchestrator never consults it.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"repurposer/internal/domain"
)

const statusTTL = time.Hour

// StatusCache caches job status strings keyed by job id.
type StatusCache struct {
	client *redis.Client
}

func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{client: client}
}

func (c *StatusCache) SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	return c.client.Set(ctx, "job_status:"+jobID, string(status), statusTTL).Err()
}

func (c *StatusCache) GetStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	val, err := c.client.Get(ctx, "job_status:"+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return domain.JobStatus(val), nil
}

var _ domain.StatusCache = (*StatusCache)(nil)
