package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

const modelsCacheKey = "catalog:models"

// Cache keeps the model list warm in Redis per company. All methods are
// no-ops with a nil client so the service also runs without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Models returns the cached model list for the company, if present.
func (c *Cache) Models(ctx context.Context, companyID string) ([]store.Model, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, tenant.PrefixKey(companyID, modelsCacheKey)).Bytes()
	if err != nil {
		return nil, false
	}
	var models []store.Model
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, false
	}
	return models, true
}

// SetModels stores the model list with the configured TTL. Failures are
// swallowed; the cache is an optimization, not a source of truth.
func (c *Cache) SetModels(ctx context.Context, companyID string, models []store.Model) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(models)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, tenant.PrefixKey(companyID, modelsCacheKey), data, c.ttl).Err()
}

// InvalidateModels drops the cached model list after a mutation.
func (c *Cache) InvalidateModels(ctx context.Context, companyID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, tenant.PrefixKey(companyID, modelsCacheKey)).Err()
}
