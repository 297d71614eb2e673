package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// memAssets is an in-memory domain.AssetStore with sequential ids.
type memAssets struct {
	mu     sync.Mutex
	nextID int64
	assets map[int64]domain.Asset
}

func newMemAssets() *memAssets {
	return &memAssets{nextID: 1, assets: make(map[int64]domain.Asset)}
}

func (m *memAssets) Create(_ context.Context, owner common.Address, contentURI string, royaltyBps int64) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	a := domain.Asset{
		ID:         m.nextID,
		Owner:      owner,
		Creator:    owner,
		RoyaltyBps: royaltyBps,
		ContentURI: contentURI,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.assets[a.ID] = a
	m.nextID++
	return a, nil
}

func (m *memAssets) GetByID(_ context.Context, id int64) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return domain.Asset{}, domain.ErrUnknownAsset
	}
	return a, nil
}

func (m *memAssets) UpdateOwner(_ context.Context, id int64, from, to common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return domain.ErrUnknownAsset
	}
	if a.Owner != from {
		return domain.ErrNotOwner
	}
	a.Owner = to
	a.UpdatedAt = time.Now().UTC()
	m.assets[id] = a
	return nil
}

func (m *memAssets) ListByOwner(_ context.Context, owner common.Address, _ domain.ListOpts) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Asset
	for _, a := range m.assets {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAssets) List(_ context.Context, _ domain.ListOpts) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAssets) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.assets)), nil
}

// memListings is an in-memory domain.ListingStore, one row per asset id.
type memListings struct {
	mu       sync.Mutex
	listings map[int64]domain.Listing
}

func newMemListings() *memListings {
	return &memListings{listings: make(map[int64]domain.Listing)}
}

func (m *memListings) Upsert(_ context.Context, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.listings[l.AssetID]; ok {
		l.CreatedAt = existing.CreatedAt
	} else {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	m.listings[l.AssetID] = l
	return nil
}

func (m *memListings) GetByAsset(_ context.Context, assetID int64) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[assetID]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (m *memListings) Deactivate(_ context.Context, assetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[assetID]
	if !ok || !l.Active {
		return domain.ErrNoActiveListing
	}
	l.Active = false
	l.UpdatedAt = time.Now().UTC()
	m.listings[assetID] = l
	return nil
}

func (m *memListings) ListActive(_ context.Context, _ domain.ListOpts) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Listing
	for _, l := range m.listings {
		if l.Active {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

// memSettlements applies settlements against the in-memory stores with the
// same atomicity contract as the SQL implementation: it validates
// everything before mutating anything.
type memSettlements struct {
	mu       sync.Mutex
	assets   *memAssets
	listings *memListings
	balances map[common.Address]int64
	receipts []domain.Receipt
}

func newMemSettlements(assets *memAssets, listings *memListings) *memSettlements {
	return &memSettlements{
		assets:   assets,
		listings: listings,
		balances: make(map[common.Address]int64),
	}
}

func (m *memSettlements) deposit(account common.Address, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
}

func (m *memSettlements) balance(account common.Address) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account]
}

func (m *memSettlements) Apply(ctx context.Context, r domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment := r.Payment()
	if m.balances[r.Buyer] < payment {
		return fmt.Errorf("apply: %w", domain.ErrTransferFailed)
	}

	a, err := m.assets.GetByID(ctx, r.AssetID)
	if err != nil {
		return err
	}
	if a.Owner != r.Seller {
		return fmt.Errorf("apply: %w", domain.ErrNotOwner)
	}
	l, err := m.listings.GetByAsset(ctx, r.AssetID)
	if err != nil || !l.Active || l.Seller != r.Seller || l.Price != r.Price {
		return fmt.Errorf("apply: %w", domain.ErrNoActiveListing)
	}

	m.balances[r.Buyer] -= payment
	m.balances[r.Seller] += r.SellerAmount
	m.balances[r.Creator] += r.RoyaltyAmount
	m.balances[r.FeeRecipient] += r.FeeAmount
	m.balances[r.Buyer] += r.Refund

	if err := m.assets.UpdateOwner(ctx, r.AssetID, r.Seller, r.Buyer); err != nil {
		return err
	}
	if err := m.listings.Deactivate(ctx, r.AssetID); err != nil {
		return err
	}
	m.receipts = append(m.receipts, r)
	return nil
}

// fakeLocks is a domain.LockManager that always grants the lock and counts
// acquisitions.
type fakeLocks struct {
	mu       sync.Mutex
	acquired []string
	held     bool
}

func (f *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.acquired = append(f.acquired, key)
	return func() {}, nil
}

// memEvents records logged events.
type memEvents struct {
	mu     sync.Mutex
	logged []domain.Event
}

func (m *memEvents) Log(_ context.Context, eventType string, assetID int64, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logged = append(m.logged, domain.Event{
		ID:        int64(len(m.logged) + 1),
		Type:      eventType,
		AssetID:   assetID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *memEvents) List(_ context.Context, _ domain.ListOpts) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.logged))
	copy(out, m.logged)
	return out, nil
}

func (m *memEvents) ListOlderThan(_ context.Context, cutoff time.Time, limit int) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.logged {
		if e.CreatedAt.Before(cutoff) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memEvents) DeleteThrough(_ context.Context, throughID int64, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.Event
	var deleted int64
	for _, e := range m.logged {
		if e.ID <= throughID && e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.logged = kept
	return deleted, nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.logged))
	for i, e := range m.logged {
		out[i] = e.Type
	}
	return out
}

func hasEvent(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
