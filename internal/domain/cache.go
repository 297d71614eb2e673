package domain

import (
	"context"
	"time"
)

// AssetCache is a read-through cache for assets keyed by id.
type AssetCache interface {
	Get(ctx context.Context, id int64) (Asset, error)
	Set(ctx context.Context, a Asset) error
	Invalidate(ctx context.Context, id int64) error
}

// ListingCache caches listings keyed by asset id plus the active-listing
// set as a whole.
type ListingCache interface {
	Get(ctx context.Context, assetID int64) (Listing, error)
	Set(ctx context.Context, l Listing) error
	Invalidate(ctx context.Context, assetID int64) error
	GetActive(ctx context.Context) ([]Listing, error)
	SetActive(ctx context.Context, listings []Listing) error
	InvalidateActive(ctx context.Context) error
}

// LockManager provides distributed mutual exclusion. Acquire returns an
// unlock function on success or ErrLockHeld if another holder owns the key.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter enforces a sliding-window request limit per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is a lightweight publish/subscribe fabric for marketplace
// events. Subscribe returns a channel that closes when ctx is cancelled.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
