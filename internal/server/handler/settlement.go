package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// SettlementService defines what the purchase handler needs from the
// settlement engine.
type SettlementService interface {
	Buy(ctx context.Context, assetID int64, buyer common.Address, payment int64) (domain.Receipt, error)
	MarketplaceFee() int64
	SetMarketplaceFee(ctx context.Context, caller common.Address, feeBps int64) error
}

// PurchaseHandler serves purchases and settlement receipts.
type PurchaseHandler struct {
	settlement SettlementService
	receipts   domain.ReceiptStore
	logger     *slog.Logger
}

// NewPurchaseHandler creates a PurchaseHandler.
func NewPurchaseHandler(settlement SettlementService, receipts domain.ReceiptStore, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		settlement: settlement,
		receipts:   receipts,
		logger:     logHandler(logger, "purchase"),
	}
}

type buyRequest struct {
	AssetID int64 `json:"asset_id"`
	Payment int64 `json:"payment"`
}

// Buy purchases a listed asset on behalf of the caller. The payment must
// cover the listing price; any excess comes back as a refund on the
// receipt.
// POST /api/purchases
func (h *PurchaseHandler) Buy(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req buyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.settlement.Buy(r.Context(), req.AssetID, caller, req.Payment)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "buy failed",
			slog.Int64("asset_id", req.AssetID),
			slog.String("buyer", caller.Hex()),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReceiptJSON(receipt))
}

// Get returns one settlement receipt by id.
// GET /api/purchases/{id}
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing receipt id")
		return
	}

	receipt, err := h.receipts.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptJSON(receipt))
}

type listReceiptsResponse struct {
	Receipts []receiptJSON `json:"receipts"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

// List returns settlement receipts filtered by asset or account. Exactly
// one of asset_id and account must be given.
// GET /api/purchases?asset_id=1 | GET /api/purchases?account=0x...
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	q := r.URL.Query()

	var (
		receipts []domain.Receipt
		err      error
	)
	switch {
	case q.Get("asset_id") != "":
		var assetID int64
		if assetID, err = parseInt64(q.Get("asset_id")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid asset_id")
			return
		}
		receipts, err = h.receipts.ListByAsset(r.Context(), assetID, opts)
	case q.Get("account") != "":
		account := q.Get("account")
		if !common.IsHexAddress(account) {
			writeError(w, http.StatusBadRequest, "invalid account address")
			return
		}
		receipts, err = h.receipts.ListByAccount(r.Context(), common.HexToAddress(account), opts)
	default:
		writeError(w, http.StatusBadRequest, "asset_id or account query parameter required")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list receipts failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listReceiptsResponse{
		Receipts: toReceiptList(receipts),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

// FeeHandler serves the marketplace fee endpoints.
type FeeHandler struct {
	settlement SettlementService
	logger     *slog.Logger
}

// NewFeeHandler creates a FeeHandler.
func NewFeeHandler(settlement SettlementService, logger *slog.Logger) *FeeHandler {
	return &FeeHandler{
		settlement: settlement,
		logger:     logHandler(logger, "fee"),
	}
}

// Get returns the current marketplace fee in basis points.
// GET /api/marketplace/fee
func (h *FeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{
		"fee_bps": h.settlement.MarketplaceFee(),
	})
}

type updateFeeRequest struct {
	FeeBps int64 `json:"fee_bps"`
}

// Update sets the marketplace fee. Admin only.
// PUT /api/marketplace/fee
func (h *FeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req updateFeeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settlement.SetMarketplaceFee(r.Context(), caller, req.FeeBps); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"fee_bps": h.settlement.MarketplaceFee(),
	})
}
