package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// AssetService is the asset registry. It owns asset identities, their
// creators, and royalty terms. Minting returns the assigned id directly;
// ownership changes only through the settlement engine.
type AssetService struct {
	assets domain.AssetStore
	cache  domain.AssetCache
	events *Events
	logger *slog.Logger
}

// NewAssetService creates an AssetService with all required dependencies.
// cache may be nil.
func NewAssetService(
	assets domain.AssetStore,
	cache domain.AssetCache,
	events *Events,
	logger *slog.Logger,
) *AssetService {
	return &AssetService{
		assets: assets,
		cache:  cache,
		events: events,
		logger: logger.With(slog.String("component", "asset_service")),
	}
}

// Mint registers a new asset owned and created by caller. The royalty rate
// is fixed for the asset's lifetime; rates above 10% are rejected with
// domain.ErrInvalidRoyalty.
func (s *AssetService) Mint(ctx context.Context, caller common.Address, contentURI string, royaltyBps int64) (domain.Asset, error) {
	if royaltyBps < 0 || royaltyBps > domain.MaxRoyaltyBps {
		return domain.Asset{}, fmt.Errorf("asset_service: mint with %d bps: %w",
			royaltyBps, domain.ErrInvalidRoyalty)
	}

	a, err := s.assets.Create(ctx, caller, contentURI, royaltyBps)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("asset_service: mint: %w", err)
	}

	s.events.Emit(ctx, domain.EventAssetMinted, a.ID, map[string]any{
		"creator":     a.Creator.Hex(),
		"royalty_bps": a.RoyaltyBps,
		"content_uri": a.ContentURI,
	})

	s.logger.InfoContext(ctx, "asset minted",
		slog.Int64("asset_id", a.ID),
		slog.String("creator", a.Creator.Hex()),
		slog.Int64("royalty_bps", a.RoyaltyBps),
	)
	return a, nil
}

// TransferOwner moves ownership of an asset. It fails with
// domain.ErrNotOwner when from is not the current owner and
// domain.ErrUnknownAsset when the id was never minted. Only the settlement
// engine calls this.
func (s *AssetService) TransferOwner(ctx context.Context, assetID int64, from, to common.Address) error {
	if err := s.assets.UpdateOwner(ctx, assetID, from, to); err != nil {
		return fmt.Errorf("asset_service: transfer %d: %w", assetID, err)
	}
	s.invalidate(ctx, assetID)

	s.events.Emit(ctx, domain.EventAssetTransferred, assetID, map[string]any{
		"from": from.Hex(),
		"to":   to.Hex(),
	})
	return nil
}

// Royalty returns the original creator and royalty rate for an asset.
func (s *AssetService) Royalty(ctx context.Context, assetID int64) (common.Address, int64, error) {
	a, err := s.Get(ctx, assetID)
	if err != nil {
		return common.Address{}, 0, err
	}
	return a.Creator, a.RoyaltyBps, nil
}

// Get retrieves an asset by id, checking the cache first and falling back
// to the persistent store on a miss.
func (s *AssetService) Get(ctx context.Context, assetID int64) (domain.Asset, error) {
	if s.cache != nil {
		if a, err := s.cache.Get(ctx, assetID); err == nil {
			return a, nil
		}
	}

	a, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("asset_service: get %d: %w", assetID, err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, a); cacheErr != nil {
			s.logger.WarnContext(ctx, "asset cache set failed",
				slog.Int64("asset_id", assetID),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return a, nil
}

// ListByOwner returns the assets currently owned by owner.
func (s *AssetService) ListByOwner(ctx context.Context, owner common.Address, opts domain.ListOpts) ([]domain.Asset, error) {
	assets, err := s.assets.ListByOwner(ctx, owner, opts)
	if err != nil {
		return nil, fmt.Errorf("asset_service: list by owner: %w", err)
	}
	return assets, nil
}

// List returns all assets in ascending id order.
func (s *AssetService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Asset, error) {
	assets, err := s.assets.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("asset_service: list: %w", err)
	}
	return assets, nil
}

// Count returns the total number of minted assets.
func (s *AssetService) Count(ctx context.Context) (int64, error) {
	return s.assets.Count(ctx)
}

func (s *AssetService) invalidate(ctx context.Context, assetID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, assetID); err != nil {
		s.logger.WarnContext(ctx, "asset cache invalidate failed",
			slog.Int64("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}
