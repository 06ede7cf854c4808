package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rkuzmin/streamhub/internal/models"
)

const cacheTTL = 5 * time.Minute

// EntryCache is a redis read-through cache for point lookups. A nil
// *EntryCache is a valid no-op cache.
type EntryCache struct {
	rdb *redis.Client
}

func NewEntryCache(rdb *redis.Client) *EntryCache {
	if rdb == nil {
		return nil
	}
	return &EntryCache{rdb: rdb}
}

func cacheKey(id string) string {
	return "catalog:entry:" + id
}

// Get returns nil, nil on a cache miss.
func (c *EntryCache) Get(ctx context.Context, id string) (*models.CatalogEntry, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var entry models.CatalogEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("cache decode failed: %w", err)
	}
	return &entry, nil
}

func (c *EntryCache) Set(ctx context.Context, entry *models.CatalogEntry) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(entry.ID), data, cacheTTL).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (c *EntryCache) Delete(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}
