package pipeline

import (
	"strings"
	"testing"

	"github.com/tunemarket/tunemarket/internal/domain"
)

func TestRenderKnownEvents(t *testing.T) {
	tests := []struct {
		eventType string
		wantTitle string
	}{
		{domain.EventAssetMinted, "Track minted"},
		{domain.EventAssetSold, "Track sold"},
		{domain.EventListingCreated, "Track listed"},
		{domain.EventListingCancelled, "Listing cancelled"},
		{domain.EventFeeUpdated, "Marketplace fee updated"},
	}
	for _, tt := range tests {
		title, message := render(tt.eventType, 7, map[string]any{"price": 100})
		if title != tt.wantTitle {
			t.Errorf("render(%s) title = %q, want %q", tt.eventType, title, tt.wantTitle)
		}
		if message == "" {
			t.Errorf("render(%s) produced an empty message", tt.eventType)
		}
	}
}

func TestRenderIncludesAssetID(t *testing.T) {
	_, message := render(domain.EventAssetSold, 42, map[string]any{})
	if !strings.Contains(message, "#42") {
		t.Errorf("message %q does not reference the asset", message)
	}
}

func TestRenderUnknownEventDropped(t *testing.T) {
	title, _ := render("asset.transferred.unknown", 1, nil)
	if title != "" {
		t.Errorf("unknown event rendered title %q, want empty", title)
	}
}

func TestRenderTransferNotForwarded(t *testing.T) {
	// Ownership transfers accompany sales; only the sale itself is
	// notified.
	if title, _ := render(domain.EventAssetTransferred, 1, nil); title != "" {
		t.Errorf("asset.transferred rendered title %q, want empty", title)
	}
}
