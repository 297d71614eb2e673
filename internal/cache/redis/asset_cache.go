package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// AssetCache implements domain.AssetCache using JSON values keyed by asset
// id.
//
// Key schema:
//
//	asset:{id} - JSON-serialized domain.Asset
type AssetCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAssetCache creates an AssetCache backed by the given Client. A zero
// ttl falls back to 5 minutes.
func NewAssetCache(c *Client, ttl time.Duration) *AssetCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AssetCache{rdb: c.Underlying(), ttl: ttl}
}

func assetKey(id int64) string {
	return "asset:" + strconv.FormatInt(id, 10)
}

// Set stores an asset with the configured TTL.
func (ac *AssetCache) Set(ctx context.Context, a domain.Asset) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redis: marshal asset %d: %w", a.ID, err)
	}
	if err := ac.rdb.Set(ctx, assetKey(a.ID), data, ac.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set asset %d: %w", a.ID, err)
	}
	return nil
}

// Get retrieves an asset by id. Returns domain.ErrNotFound on a miss.
func (ac *AssetCache) Get(ctx context.Context, id int64) (domain.Asset, error) {
	data, err := ac.rdb.Get(ctx, assetKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Asset{}, domain.ErrNotFound
		}
		return domain.Asset{}, fmt.Errorf("redis: get asset %d: %w", id, err)
	}

	var a domain.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Asset{}, fmt.Errorf("redis: unmarshal asset %d: %w", id, err)
	}
	return a, nil
}

// Invalidate removes an asset from the cache.
func (ac *AssetCache) Invalidate(ctx context.Context, id int64) error {
	if err := ac.rdb.Del(ctx, assetKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate asset %d: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.AssetCache = (*AssetCache)(nil)
