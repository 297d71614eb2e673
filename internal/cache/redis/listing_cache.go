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

// ListingCache implements domain.ListingCache.
//
// Key schema:
//
//	listing:{assetID} - JSON-serialized domain.Listing
//	listings:active   - JSON array of all active listings
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache creates a ListingCache backed by the given Client. A zero
// ttl falls back to 1 minute; listings change more often than assets.
func NewListingCache(c *Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ListingCache{rdb: c.Underlying(), ttl: ttl}
}

func listingKey(assetID int64) string {
	return "listing:" + strconv.FormatInt(assetID, 10)
}

const activeListingsKey = "listings:active"

// Set stores a listing with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, l domain.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("redis: marshal listing %d: %w", l.AssetID, err)
	}
	if err := lc.rdb.Set(ctx, listingKey(l.AssetID), data, lc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set listing %d: %w", l.AssetID, err)
	}
	return nil
}

// Get retrieves a listing by asset id. Returns domain.ErrNotFound on a miss.
func (lc *ListingCache) Get(ctx context.Context, assetID int64) (domain.Listing, error) {
	data, err := lc.rdb.Get(ctx, listingKey(assetID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("redis: get listing %d: %w", assetID, err)
	}

	var l domain.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return domain.Listing{}, fmt.Errorf("redis: unmarshal listing %d: %w", assetID, err)
	}
	return l, nil
}

// Invalidate removes a listing and the active set, which necessarily
// changed with it.
func (lc *ListingCache) Invalidate(ctx context.Context, assetID int64) error {
	if err := lc.rdb.Del(ctx, listingKey(assetID), activeListingsKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate listing %d: %w", assetID, err)
	}
	return nil
}

// GetActive retrieves the cached active-listing set. Returns
// domain.ErrNotFound on a miss.
func (lc *ListingCache) GetActive(ctx context.Context) ([]domain.Listing, error) {
	data, err := lc.rdb.Get(ctx, activeListingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get active listings: %w", err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("redis: unmarshal active listings: %w", err)
	}
	return listings, nil
}

// SetActive stores the full active-listing set.
func (lc *ListingCache) SetActive(ctx context.Context, listings []domain.Listing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("redis: marshal active listings: %w", err)
	}
	if err := lc.rdb.Set(ctx, activeListingsKey, data, lc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set active listings: %w", err)
	}
	return nil
}

// InvalidateActive drops the active-listing set.
func (lc *ListingCache) InvalidateActive(ctx context.Context) error {
	if err := lc.rdb.Del(ctx, activeListingsKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate active listings: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ListingCache = (*ListingCache)(nil)
