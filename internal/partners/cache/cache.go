// Package cache provides a Redis-backed TTL cache for partner eligibility
// lookups. Eligibility queries run on the hot path of enquiry intake and
// booking confirmation, so results are cached per (pincode, category) pair
// and invalidated whenever a partner record changes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "eligibility:"

// EligibilityCache caches eligible partner ID lists in Redis.
type EligibilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates an eligibility cache with the given TTL.
func New(client *redis.Client, ttl time.Duration) *EligibilityCache {
	return &EligibilityCache{client: client, ttl: ttl}
}

func cacheKey(pincode, category string) string {
	return keyPrefix + pincode + ":" + category
}

// Get returns the cached partner IDs for a (pincode, category) pair.
// The second return value is false on a cache miss. Redis errors are
// treated as misses so a cache outage never blocks allocation.
func (c *EligibilityCache) Get(ctx context.Context, pincode, category string) ([]uuid.UUID, bool) {
	raw, err := c.client.Get(ctx, cacheKey(pincode, category)).Bytes()
	if err != nil {
		return nil, false
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// Set stores the partner IDs for a (pincode, category) pair.
func (c *EligibilityCache) Set(ctx context.Context, pincode, category string, ids []uuid.UUID) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal eligibility entry: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(pincode, category), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set eligibility entry: %w", err)
	}
	return nil
}

// InvalidatePincodes drops every cached entry for the given pincodes,
// across all categories. Called when a partner's coverage or status changes.
func (c *EligibilityCache) InvalidatePincodes(ctx context.Context, pincodes []string) error {
	for _, pincode := range pincodes {
		iter := c.client.Scan(ctx, 0, keyPrefix+pincode+":*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("invalidate eligibility entry: %w", err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan eligibility entries: %w", err)
		}
	}
	return nil
}
