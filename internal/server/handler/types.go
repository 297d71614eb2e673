package handler

import (
	"time"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// assetJSON is the wire representation of an asset.
type assetJSON struct {
	ID         int64     `json:"id"`
	Owner      string    `json:"owner"`
	Creator    string    `json:"creator"`
	RoyaltyBps int64     `json:"royalty_bps"`
	ContentURI string    `json:"content_uri"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toAssetJSON(a domain.Asset) assetJSON {
	return assetJSON{
		ID:         a.ID,
		Owner:      a.Owner.Hex(),
		Creator:    a.Creator.Hex(),
		RoyaltyBps: a.RoyaltyBps,
		ContentURI: a.ContentURI,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toAssetList(assets []domain.Asset) []assetJSON {
	out := make([]assetJSON, len(assets))
	for i, a := range assets {
		out[i] = toAssetJSON(a)
	}
	return out
}

// listingJSON is the wire representation of a listing.
type listingJSON struct {
	AssetID   int64     `json:"asset_id"`
	Seller    string    `json:"seller"`
	Price     int64     `json:"price"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toListingJSON(l domain.Listing) listingJSON {
	return listingJSON{
		AssetID:   l.AssetID,
		Seller:    l.Seller.Hex(),
		Price:     l.Price,
		Active:    l.Active,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toListingList(listings []domain.Listing) []listingJSON {
	out := make([]listingJSON, len(listings))
	for i, l := range listings {
		out[i] = toListingJSON(l)
	}
	return out
}

// receiptJSON is the wire representation of a settlement receipt.
type receiptJSON struct {
	ID            string    `json:"id"`
	AssetID       int64     `json:"asset_id"`
	Seller        string    `json:"seller"`
	Buyer         string    `json:"buyer"`
	Creator       string    `json:"creator"`
	FeeRecipient  string    `json:"fee_recipient"`
	Price         int64     `json:"price"`
	RoyaltyAmount int64     `json:"royalty_amount"`
	FeeAmount     int64     `json:"fee_amount"`
	SellerAmount  int64     `json:"seller_amount"`
	Refund        int64     `json:"refund"`
	CreatedAt     time.Time `json:"created_at"`
}

func toReceiptJSON(r domain.Receipt) receiptJSON {
	return receiptJSON{
		ID:            r.ID,
		AssetID:       r.AssetID,
		Seller:        r.Seller.Hex(),
		Buyer:         r.Buyer.Hex(),
		Creator:       r.Creator.Hex(),
		FeeRecipient:  r.FeeRecipient.Hex(),
		Price:         r.Price,
		RoyaltyAmount: r.RoyaltyAmount,
		FeeAmount:     r.FeeAmount,
		SellerAmount:  r.SellerAmount,
		Refund:        r.Refund,
		CreatedAt:     r.CreatedAt,
	}
}

func toReceiptList(receipts []domain.Receipt) []receiptJSON {
	out := make([]receiptJSON, len(receipts))
	for i, r := range receipts {
		out[i] = toReceiptJSON(r)
	}
	return out
}

// eventJSON is the wire representation of an event-log row.
type eventJSON struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	AssetID   int64          `json:"asset_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toEventList(events []domain.Event) []eventJSON {
	out := make([]eventJSON, len(events))
	for i, e := range events {
		out[i] = eventJSON{
			ID:        e.ID,
			Type:      e.Type,
			AssetID:   e.AssetID,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}
