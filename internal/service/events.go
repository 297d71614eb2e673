// Package service implements the marketplace settlement core: the asset
// registry, the listing ledger, and the settlement engine, plus content
// handling. Services orchestrate the domain stores and caches and emit
// marketplace events.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// Events records marketplace events in the persistent log and publishes
// them on the signal bus. Emission is best-effort: the owning operation has
// already committed, so event failures are logged, never propagated.
type Events struct {
	store  domain.EventStore
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewEvents creates an event publisher. Either store or bus may be nil, in
// which case that half is skipped.
func NewEvents(store domain.EventStore, bus domain.SignalBus, logger *slog.Logger) *Events {
	return &Events{
		store:  store,
		bus:    bus,
		logger: logger.With(slog.String("component", "events")),
	}
}

// busEnvelope is the JSON shape published on the signal bus and forwarded
// to WebSocket clients.
type busEnvelope struct {
	Type    string         `json:"type"`
	AssetID int64          `json:"asset_id,omitempty"`
	Detail  map[string]any `json:"detail,omitempty"`
	At      time.Time      `json:"at"`
}

// Emit logs and publishes one event.
func (e *Events) Emit(ctx context.Context, eventType string, assetID int64, detail map[string]any) {
	if e.store != nil {
		if err := e.store.Log(ctx, eventType, assetID, detail); err != nil {
			e.logger.WarnContext(ctx, "event log failed",
				slog.String("event", eventType),
				slog.Int64("asset_id", assetID),
				slog.String("error", err.Error()),
			)
		}
	}

	if e.bus == nil {
		return
	}
	payload, err := json.Marshal(busEnvelope{
		Type:    eventType,
		AssetID: assetID,
		Detail:  detail,
		At:      time.Now().UTC(),
	})
	if err != nil {
		e.logger.WarnContext(ctx, "event marshal failed",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.bus.Publish(ctx, domain.Channel(eventType), payload); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}
