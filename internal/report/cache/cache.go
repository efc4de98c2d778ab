// Package cache stores finished reports in Redis keyed by the fingerprint
// of their inputs, so re-running over unchanged files skips the scan.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report"
	pkgredis "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/redis"
)

const keyPrefix = "commonwords:report:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type ReportCache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

func New(store Store, ttl time.Duration) *ReportCache {
	return &ReportCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "report-cache"),
	}
}

// Get returns the cached report for fingerprint. Any failure, including a
// corrupt entry, is reported as a miss.
func (c *ReportCache) Get(ctx context.Context, fingerprint string) (*report.Report, bool) {
	key := keyPrefix + fingerprint
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, false
	}
	var r report.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	c.logger.Debug("cache hit", "key", key, "run_id", r.RunID)
	return &r, true
}

func (c *ReportCache) Set(ctx context.Context, fingerprint string, r *report.Report) error {
	key := keyPrefix + fingerprint
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", r.RunID, err)
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("caching report %s: %w", r.RunID, err)
	}
	return nil
}
