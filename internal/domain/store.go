package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// AssetStore persists assets. Ids are assigned by the store, sequentially
// from 1, and never reused.
type AssetStore interface {
	Create(ctx context.Context, owner common.Address, contentURI string, royaltyBps int64) (Asset, error)
	GetByID(ctx context.Context, id int64) (Asset, error)
	UpdateOwner(ctx context.Context, id int64, from, to common.Address) error
	ListByOwner(ctx context.Context, owner common.Address, opts ListOpts) ([]Asset, error)
	List(ctx context.Context, opts ListOpts) ([]Asset, error)
	Count(ctx context.Context) (int64, error)
}

// ListingStore persists listings, one row per asset id. Upsert replaces any
// existing listing for the asset (last-list-wins).
type ListingStore interface {
	Upsert(ctx context.Context, l Listing) error
	GetByAsset(ctx context.Context, assetID int64) (Listing, error)
	Deactivate(ctx context.Context, assetID int64) error
	ListActive(ctx context.Context, opts ListOpts) ([]Listing, error)
}

// ReceiptStore persists settlement receipts.
type ReceiptStore interface {
	GetByID(ctx context.Context, id string) (Receipt, error)
	ListByAsset(ctx context.Context, assetID int64, opts ListOpts) ([]Receipt, error)
	ListByAccount(ctx context.Context, account common.Address, opts ListOpts) ([]Receipt, error)
}

// EventStore persists the append-only marketplace event log.
type EventStore interface {
	Log(ctx context.Context, eventType string, assetID int64, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]Event, error)
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]Event, error)
	DeleteThrough(ctx context.Context, throughID int64, cutoff time.Time) (int64, error)
}

// BalanceStore persists account balances in the smallest currency unit.
// Deposit is the only way value enters the system.
type BalanceStore interface {
	Deposit(ctx context.Context, account common.Address, amount int64) error
	Balance(ctx context.Context, account common.Address) (int64, error)
}

// SettlementStore applies a fully computed settlement as one atomic unit:
// debit the buyer by the full payment, credit seller, creator, fee
// recipient, and refund, move asset ownership, deactivate the listing, and
// record the receipt. Either every effect commits or none do. A buyer
// balance short of the payment fails with ErrTransferFailed; a listing no
// longer active with the receipt's seller and price fails with
// ErrNoActiveListing, so a concurrent relist cannot settle at a stale
// price.
type SettlementStore interface {
	Apply(ctx context.Context, r Receipt) error
}
