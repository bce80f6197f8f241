package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledger:exposure"

// ExposureCache keeps supplier exposure reports in Redis.
//
// Every tenant has a version counter; report keys embed the current version, so
// invalidation is a single INCR and stale reports simply expire with their TTL.
type ExposureCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ portsrepo.ExposureCache = (*ExposureCache)(nil)

// NewExposureCache returns a cache backed by client.
func NewExposureCache(client *redis.Client, ttl time.Duration) *ExposureCache {
	return &ExposureCache{client: client, ttl: ttl}
}

func versionKey(tenantID string) string {
	return fmt.Sprintf("%s:%s:version", keyPrefix, tenantID)
}

func reportKey(tenantID string, version int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, tenantID, version, key)
}

func (c *ExposureCache) version(ctx context.Context, tenantID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetExposure returns a cached report and the version it looked under. Redis failures
// are logged and reported as a miss.
func (c *ExposureCache) GetExposure(ctx context.Context, tenantID, key string) (*domain.ExposureReport, int64, bool) {
	v, err := c.version(ctx, tenantID)
	if err != nil {
		slog.WarnContext(ctx, "Redis GET version failed", "tenant_id", tenantID, "error", err)
		return nil, -1, false
	}

	data, err := c.client.Get(ctx, reportKey(tenantID, v, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Redis GET exposure failed", "tenant_id", tenantID, "error", err)
		}
		return nil, v, false
	}

	var report domain.ExposureReport
	if err := json.Unmarshal(data, &report); err != nil {
		slog.WarnContext(ctx, "Discarding undecodable cached exposure report", "tenant_id", tenantID, "error", err)
		return nil, v, false
	}
	return &report, v, true
}

// SetExposure stores a report under the version GetExposure returned. If the tenant was
// invalidated in between, the key is already unreachable and simply expires.
func (c *ExposureCache) SetExposure(ctx context.Context, tenantID, key string, version int64, report domain.ExposureReport) {
	if version < 0 {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		slog.WarnContext(ctx, "Failed to encode exposure report for cache", "tenant_id", tenantID, "error", err)
		return
	}
	if err := c.client.Set(ctx, reportKey(tenantID, version, key), data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis SET exposure failed", "tenant_id", tenantID, "error", err)
	}
}

// InvalidateTenant bumps the tenant version so every cached report becomes unreachable.
func (c *ExposureCache) InvalidateTenant(ctx context.Context, tenantID string) {
	if err := c.client.Incr(ctx, versionKey(tenantID)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis INCR exposure version failed", "tenant_id", tenantID, "error", err)
	}
}
