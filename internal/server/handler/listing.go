package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// ListingService defines what the listing handler needs from the ledger.
type ListingService interface {
	List(ctx context.Context, assetID int64, seller common.Address, price int64) (domain.Listing, error)
	Cancel(ctx context.Context, assetID int64, caller common.Address) error
	Get(ctx context.Context, assetID int64) (domain.Listing, error)
	ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Listing, error)
}

// ListingHandler serves the listing ledger endpoints.
type ListingHandler struct {
	listings ListingService
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(listings ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		logger:   logHandler(logger, "listing"),
	}
}

type createListingRequest struct {
	AssetID int64 `json:"asset_id"`
	Price   int64 `json:"price"`
}

// Create puts the caller's asset up for sale.
// POST /api/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req createListingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.listings.List(r.Context(), req.AssetID, caller, req.Price)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create listing failed",
			slog.Int64("asset_id", req.AssetID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListingJSON(l))
}

// Cancel deactivates the caller's listing for an asset.
// DELETE /api/listings/{assetID}
func (h *ListingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	assetID, err := pathID(r, "assetID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := h.listings.Cancel(r.Context(), assetID, caller); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get returns the listing for an asset, active or not.
// GET /api/listings/{assetID}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	assetID, err := pathID(r, "assetID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	l, err := h.listings.Get(r.Context(), assetID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingJSON(l))
}

type listListingsResponse struct {
	Listings []listingJSON `json:"listings"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

// ListActive returns the active listings in ascending asset id order.
// GET /api/listings?limit=50&offset=0
func (h *ListingHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	listings, err := h.listings.ListActive(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list active listings failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listListingsResponse{
		Listings: toListingList(listings),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}
