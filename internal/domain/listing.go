package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Listing is an open offer to sell one asset at a fixed price. At most one
// active listing exists per asset id. Listings are deactivated on cancel or
// sale but never deleted, so sale history stays queryable.
type Listing struct {
	AssetID   int64
	Seller    common.Address
	Price     int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
