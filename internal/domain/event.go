package domain

import "time"

// Marketplace event types, used in the persistent event log, on the signal
// bus, and as notification filters.
const (
	EventAssetMinted      = "asset.minted"
	EventAssetTransferred = "asset.transferred"
	EventAssetSold        = "asset.sold"
	EventListingCreated   = "listing.created"
	EventListingCancelled = "listing.cancelled"
	EventFeeUpdated       = "fee.updated"
)

// Event is one append-only marketplace event row. AssetID is zero for
// events not tied to a specific asset (fee changes).
type Event struct {
	ID        int64
	Type      string
	AssetID   int64
	Detail    map[string]any
	CreatedAt time.Time
}

// Channel returns the signal bus channel an event type is published on.
func Channel(eventType string) string {
	return "ch:" + eventType
}
