package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tunemarket/tunemarket/internal/domain"
	"github.com/tunemarket/tunemarket/internal/notify"
)

// NotifyBridge subscribes to marketplace event channels on the signal bus
// and forwards selected events to the configured notification senders.
type NotifyBridge struct {
	bus      domain.SignalBus
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewNotifyBridge creates a NotifyBridge.
func NewNotifyBridge(bus domain.SignalBus, notifier *notify.Notifier, logger *slog.Logger) *NotifyBridge {
	return &NotifyBridge{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_bridge")),
	}
}

// Run subscribes to every marketplace event channel and blocks until the
// context is cancelled. Notification failures are logged and dropped; the
// bridge never blocks settlement.
func (b *NotifyBridge) Run(ctx context.Context) error {
	ch, err := b.bus.Subscribe(ctx, domain.Channel("*"))
	if err != nil {
		return fmt.Errorf("pipeline: notify subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-ch:
			if !ok {
				return ctx.Err()
			}
			b.forward(ctx, payload)
		}
	}
}

func (b *NotifyBridge) forward(ctx context.Context, payload []byte) {
	var env struct {
		Type    string         `json:"type"`
		AssetID int64          `json:"asset_id"`
		Detail  map[string]any `json:"detail"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		b.logger.WarnContext(ctx, "bad event payload",
			slog.String("error", err.Error()),
		)
		return
	}

	title, message := render(env.Type, env.AssetID, env.Detail)
	if title == "" {
		return
	}

	if err := b.notifier.Notify(ctx, env.Type, title, message); err != nil {
		b.logger.WarnContext(ctx, "notification failed",
			slog.String("event", env.Type),
			slog.String("error", err.Error()),
		)
	}
}

// render turns an event into a human-readable notification. Events without
// a rendering are not forwarded.
func render(eventType string, assetID int64, detail map[string]any) (title, message string) {
	switch eventType {
	case domain.EventAssetMinted:
		return "Track minted",
			fmt.Sprintf("Asset #%d minted by %v (royalty %v bps)",
				assetID, detail["creator"], detail["royalty_bps"])
	case domain.EventAssetSold:
		return "Track sold",
			fmt.Sprintf("Asset #%d sold to %v for %v (royalty %v, fee %v)",
				assetID, detail["buyer"], detail["price"],
				detail["royalty_amount"], detail["fee_amount"])
	case domain.EventListingCreated:
		return "Track listed",
			fmt.Sprintf("Asset #%d listed by %v at %v", assetID, detail["seller"], detail["price"])
	case domain.EventListingCancelled:
		return "Listing cancelled",
			fmt.Sprintf("Asset #%d delisted by %v", assetID, detail["seller"])
	case domain.EventFeeUpdated:
		return "Marketplace fee updated",
			fmt.Sprintf("Fee changed from %v to %v bps",
				detail["old_fee_bps"], detail["new_fee_bps"])
	default:
		return "", ""
	}
}
