package handler

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// BalanceHandler serves the account balance endpoints. Deposits are the
// only way value enters the marketplace; everything else moves it between
// accounts.
type BalanceHandler struct {
	balances domain.BalanceStore
	logger   *slog.Logger
}

// NewBalanceHandler creates a BalanceHandler.
func NewBalanceHandler(balances domain.BalanceStore, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{
		balances: balances,
		logger:   logHandler(logger, "balance"),
	}
}

// Get returns the balance of an account. Accounts with no deposits read as
// zero.
// GET /api/balances/{address}
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}
	account := common.HexToAddress(address)

	amount, err := h.balances.Balance(r.Context(), account)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "balance lookup failed",
			slog.String("account", account.Hex()),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account": account.Hex(),
		"amount":  amount,
	})
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit credits the caller's own account.
// POST /api/balances/deposit
func (h *BalanceHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		writeDomainError(w, domain.ErrInvalidAmount)
		return
	}

	if err := h.balances.Deposit(r.Context(), caller, req.Amount); err != nil {
		h.logger.ErrorContext(r.Context(), "deposit failed",
			slog.String("account", caller.Hex()),
			slog.Int64("amount", req.Amount),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	amount, err := h.balances.Balance(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": caller.Hex(),
		"amount":  amount,
	})
}
