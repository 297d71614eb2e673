package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// AssetService defines what the asset handler needs from the registry.
type AssetService interface {
	Mint(ctx context.Context, caller common.Address, contentURI string, royaltyBps int64) (domain.Asset, error)
	Get(ctx context.Context, assetID int64) (domain.Asset, error)
	Royalty(ctx context.Context, assetID int64) (common.Address, int64, error)
	ListByOwner(ctx context.Context, owner common.Address, opts domain.ListOpts) ([]domain.Asset, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Asset, error)
	Count(ctx context.Context) (int64, error)
}

// AssetHandler serves the asset registry endpoints.
type AssetHandler struct {
	assets AssetService
	logger *slog.Logger
}

// NewAssetHandler creates an AssetHandler.
func NewAssetHandler(assets AssetService, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{
		assets: assets,
		logger: logHandler(logger, "asset"),
	}
}

type mintRequest struct {
	ContentURI string `json:"content_uri"`
	RoyaltyBps int64  `json:"royalty_bps"`
}

// Mint registers a new asset owned by the caller.
// POST /api/assets
func (h *AssetHandler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.assets.Mint(r.Context(), caller, req.ContentURI, req.RoyaltyBps)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "mint failed",
			slog.String("caller", caller.Hex()),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssetJSON(a))
}

type listAssetsResponse struct {
	Assets []assetJSON `json:"assets"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// List returns assets with pagination, optionally filtered by owner.
// GET /api/assets?owner=0x...&limit=50&offset=0
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var (
		assets []domain.Asset
		err    error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		if !common.IsHexAddress(owner) {
			writeError(w, http.StatusBadRequest, "invalid owner address")
			return
		}
		assets, err = h.assets.ListByOwner(r.Context(), common.HexToAddress(owner), opts)
	} else {
		assets, err = h.assets.List(r.Context(), opts)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list assets failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	total, err := h.assets.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "count assets failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listAssetsResponse{
		Assets: toAssetList(assets),
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// Get returns a single asset by id.
// GET /api/assets/{id}
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	a, err := h.assets.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetJSON(a))
}

// Royalty returns the original creator and royalty rate for an asset.
// GET /api/assets/{id}/royalty
func (h *AssetHandler) Royalty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	creator, bps, err := h.assets.Royalty(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset_id":    id,
		"creator":     creator.Hex(),
		"royalty_bps": bps,
	})
}
