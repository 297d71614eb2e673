package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// ListingService is the listing ledger. It owns the set of sale listings,
// one per asset at most, validated against the asset registry.
type ListingService struct {
	listings domain.ListingStore
	assets   domain.AssetStore
	cache    domain.ListingCache
	events   *Events
	logger   *slog.Logger
}

// NewListingService creates a ListingService with all required
// dependencies. cache may be nil.
func NewListingService(
	listings domain.ListingStore,
	assets domain.AssetStore,
	cache domain.ListingCache,
	events *Events,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		assets:   assets,
		cache:    cache,
		events:   events,
		logger:   logger.With(slog.String("component", "listing_service")),
	}
}

// List puts an asset up for sale at the given price. Only the current
// owner may list; a zero or negative price is rejected. An existing active
// listing for the asset is replaced (last-list-wins).
func (s *ListingService) List(ctx context.Context, assetID int64, seller common.Address, price int64) (domain.Listing, error) {
	if price <= 0 {
		return domain.Listing{}, fmt.Errorf("listing_service: list asset %d at %d: %w",
			assetID, price, domain.ErrInvalidPrice)
	}

	a, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("listing_service: list asset %d: %w", assetID, err)
	}
	if a.Owner != seller {
		return domain.Listing{}, fmt.Errorf("listing_service: list asset %d by %s: %w",
			assetID, seller, domain.ErrNotOwner)
	}

	l := domain.Listing{
		AssetID: assetID,
		Seller:  seller,
		Price:   price,
		Active:  true,
	}
	if err := s.listings.Upsert(ctx, l); err != nil {
		return domain.Listing{}, fmt.Errorf("listing_service: list asset %d: %w", assetID, err)
	}
	s.invalidate(ctx, assetID)

	s.events.Emit(ctx, domain.EventListingCreated, assetID, map[string]any{
		"seller": seller.Hex(),
		"price":  price,
	})

	s.logger.InfoContext(ctx, "asset listed",
		slog.Int64("asset_id", assetID),
		slog.String("seller", seller.Hex()),
		slog.Int64("price", price),
	)
	return l, nil
}

// Cancel deactivates the active listing for an asset. Only the listing's
// seller may cancel.
func (s *ListingService) Cancel(ctx context.Context, assetID int64, caller common.Address) error {
	l, err := s.listings.GetByAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("listing_service: cancel asset %d: %w", assetID, domain.ErrNoActiveListing)
		}
		return fmt.Errorf("listing_service: cancel asset %d: %w", assetID, err)
	}
	if !l.Active {
		return fmt.Errorf("listing_service: cancel asset %d: %w", assetID, domain.ErrNoActiveListing)
	}
	if l.Seller != caller {
		return fmt.Errorf("listing_service: cancel asset %d by %s: %w",
			assetID, caller, domain.ErrNotSeller)
	}

	if err := s.listings.Deactivate(ctx, assetID); err != nil {
		return fmt.Errorf("listing_service: cancel asset %d: %w", assetID, err)
	}
	s.invalidate(ctx, assetID)

	s.events.Emit(ctx, domain.EventListingCancelled, assetID, map[string]any{
		"seller": caller.Hex(),
	})
	return nil
}

// Get retrieves the listing for an asset, active or not, checking the
// cache first.
func (s *ListingService) Get(ctx context.Context, assetID int64) (domain.Listing, error) {
	if s.cache != nil {
		if l, err := s.cache.Get(ctx, assetID); err == nil {
			return l, nil
		}
	}

	l, err := s.listings.GetByAsset(ctx, assetID)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("listing_service: get %d: %w", assetID, err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, l); cacheErr != nil {
			s.logger.WarnContext(ctx, "listing cache set failed",
				slog.Int64("asset_id", assetID),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return l, nil
}

// ListActive returns all active listings in ascending asset id order. The
// unpaginated set is served from cache when possible.
func (s *ListingService) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Listing, error) {
	wholeSet := opts.Limit <= 0 && opts.Offset == 0

	if wholeSet && s.cache != nil {
		if listings, err := s.cache.GetActive(ctx); err == nil {
			return listings, nil
		}
	}

	listings, err := s.listings.ListActive(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing_service: list active: %w", err)
	}

	if wholeSet && s.cache != nil {
		if cacheErr := s.cache.SetActive(ctx, listings); cacheErr != nil {
			s.logger.WarnContext(ctx, "active listings cache set failed",
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return listings, nil
}

func (s *ListingService) invalidate(ctx context.Context, assetID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, assetID); err != nil {
		s.logger.WarnContext(ctx, "listing cache invalidate failed",
			slog.Int64("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.cache.InvalidateActive(ctx); err != nil {
		s.logger.WarnContext(ctx, "active listings cache invalidate failed",
			slog.String("error", err.Error()),
		)
	}
}
