// Package domain defines the core marketplace types, store and cache
// interfaces, and the settlement arithmetic shared by all layers.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// MaxRoyaltyBps caps per-asset creator royalties at 10%.
	MaxRoyaltyBps = 1000

	// MaxFeeBps caps the marketplace fee at 100%.
	MaxFeeBps = 10000

	// BpsDenominator converts basis points to a fraction.
	BpsDenominator = 10000
)

// Asset is one music work registered on the marketplace. Creator and
// RoyaltyBps are fixed at mint time; Owner changes only through settlement.
// Assets are never destroyed.
type Asset struct {
	ID         int64
	Owner      common.Address
	Creator    common.Address
	RoyaltyBps int64
	ContentURI string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TrackMetadata is the JSON document a minted asset's ContentURI points at.
// Image and Audio hold content-store CIDs.
type TrackMetadata struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Genre       string `json:"genre,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Audio       string `json:"audio,omitempty"`
}
