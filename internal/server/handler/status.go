package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// StatusHandler serves the marketplace status snapshot for dashboards.
type StatusHandler struct {
	mode       string
	admin      string
	startedAt  time.Time
	settlement SettlementService
	assets     AssetService
	logger     *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode, admin string, startedAt time.Time, settlement SettlementService, assets AssetService, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		mode:       mode,
		admin:      admin,
		startedAt:  startedAt,
		settlement: settlement,
		assets:     assets,
		logger:     logHandler(logger, "status"),
	}
}

// GetStatus responds with the backend mode, current fee, asset count, and
// uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	assetCount := h.countAssets(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.mode,
		"admin":          h.admin,
		"fee_bps":        h.settlement.MarketplaceFee(),
		"asset_count":    assetCount,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

func (h *StatusHandler) countAssets(ctx context.Context) int64 {
	count, err := h.assets.Count(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "asset count failed",
			slog.String("error", err.Error()),
		)
		return -1
	}
	return count
}
