package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// settleLockTTL bounds how long a settlement may hold its per-asset lock.
const settleLockTTL = 10 * time.Second

// SettlementService is the settlement engine. Buy validates a listing,
// computes the exact price split, and applies every effect of the purchase
// as one transactional unit, serialised per asset id by a distributed lock.
// The marketplace fee and its administrator are injected at construction.
type SettlementService struct {
	assets       domain.AssetStore
	listings     domain.ListingStore
	settlements  domain.SettlementStore
	locks        domain.LockManager
	assetCache   domain.AssetCache
	listingCache domain.ListingCache
	events       *Events
	logger       *slog.Logger

	admin        common.Address
	feeRecipient common.Address

	feeMu  sync.RWMutex
	feeBps int64
}

// SettlementConfig holds the injected marketplace parameters.
type SettlementConfig struct {
	Admin        common.Address
	FeeRecipient common.Address
	FeeBps       int64
}

// NewSettlementService creates a SettlementService. assetCache and
// listingCache may be nil.
func NewSettlementService(
	assets domain.AssetStore,
	listings domain.ListingStore,
	settlements domain.SettlementStore,
	locks domain.LockManager,
	assetCache domain.AssetCache,
	listingCache domain.ListingCache,
	events *Events,
	cfg SettlementConfig,
	logger *slog.Logger,
) *SettlementService {
	recipient := cfg.FeeRecipient
	if recipient == (common.Address{}) {
		recipient = cfg.Admin
	}
	return &SettlementService{
		assets:       assets,
		listings:     listings,
		settlements:  settlements,
		locks:        locks,
		assetCache:   assetCache,
		listingCache: listingCache,
		events:       events,
		logger:       logger.With(slog.String("component", "settlement_service")),
		admin:        cfg.Admin,
		feeRecipient: recipient,
		feeBps:       cfg.FeeBps,
	}
}

// MarketplaceFee returns the current fee in basis points.
func (s *SettlementService) MarketplaceFee() int64 {
	s.feeMu.RLock()
	defer s.feeMu.RUnlock()
	return s.feeBps
}

// SetMarketplaceFee updates the fee applied to future settlements. Only
// the configured admin may call it; fees above 100% are rejected.
func (s *SettlementService) SetMarketplaceFee(ctx context.Context, caller common.Address, feeBps int64) error {
	if caller != s.admin {
		return fmt.Errorf("settlement_service: set fee by %s: %w", caller, domain.ErrNotAdmin)
	}
	if feeBps < 0 || feeBps > domain.MaxFeeBps {
		return fmt.Errorf("settlement_service: set fee to %d bps: %w", feeBps, domain.ErrInvalidFee)
	}

	s.feeMu.Lock()
	old := s.feeBps
	s.feeBps = feeBps
	s.feeMu.Unlock()

	s.events.Emit(ctx, domain.EventFeeUpdated, 0, map[string]any{
		"old_fee_bps": old,
		"new_fee_bps": feeBps,
	})

	s.logger.InfoContext(ctx, "marketplace fee updated",
		slog.Int64("old_bps", old),
		slog.Int64("new_bps", feeBps),
	)
	return nil
}

// Buy executes a purchase. The payment must cover the listing price; any
// excess is refunded to the buyer as part of the same settlement. On
// success the buyer owns the asset, the listing is inactive, and the price
// has been disbursed between seller, creator, and fee recipient — all
// committed atomically, or not at all.
func (s *SettlementService) Buy(ctx context.Context, assetID int64, buyer common.Address, payment int64) (domain.Receipt, error) {
	// Serialise settlements on the same asset across processes.
	unlock, err := s.locks.Acquire(ctx, settleKey(assetID), settleLockTTL)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w", assetID, err)
	}
	defer unlock()

	l, err := s.listings.GetByAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w",
				assetID, domain.ErrNoActiveListing)
		}
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w", assetID, err)
	}
	if !l.Active {
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w",
			assetID, domain.ErrNoActiveListing)
	}

	if payment < l.Price {
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d, paid %d of %d: %w",
			assetID, payment, l.Price, domain.ErrInsufficientPayment)
	}

	a, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w", assetID, err)
	}

	split, err := domain.SplitPrice(l.Price, a.RoyaltyBps, s.MarketplaceFee())
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w", assetID, err)
	}

	r := domain.Receipt{
		ID:            uuid.New().String(),
		AssetID:       assetID,
		Seller:        l.Seller,
		Buyer:         buyer,
		Creator:       a.Creator,
		FeeRecipient:  s.feeRecipient,
		Price:         l.Price,
		RoyaltyAmount: split.RoyaltyAmount,
		FeeAmount:     split.FeeAmount,
		SellerAmount:  split.SellerAmount,
		Refund:        payment - l.Price,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.settlements.Apply(ctx, r); err != nil {
		return domain.Receipt{}, fmt.Errorf("settlement_service: buy asset %d: %w", assetID, err)
	}

	s.invalidate(ctx, assetID)

	s.events.Emit(ctx, domain.EventAssetTransferred, assetID, map[string]any{
		"from": l.Seller.Hex(),
		"to":   buyer.Hex(),
	})
	s.events.Emit(ctx, domain.EventAssetSold, assetID, map[string]any{
		"receipt_id":     r.ID,
		"seller":         r.Seller.Hex(),
		"buyer":          r.Buyer.Hex(),
		"price":          r.Price,
		"royalty_amount": r.RoyaltyAmount,
		"fee_amount":     r.FeeAmount,
		"seller_amount":  r.SellerAmount,
		"refund":         r.Refund,
	})

	s.logger.InfoContext(ctx, "asset sold",
		slog.Int64("asset_id", assetID),
		slog.String("buyer", buyer.Hex()),
		slog.Int64("price", r.Price),
		slog.String("receipt_id", r.ID),
	)
	return r, nil
}

func (s *SettlementService) invalidate(ctx context.Context, assetID int64) {
	if s.assetCache != nil {
		if err := s.assetCache.Invalidate(ctx, assetID); err != nil {
			s.logger.WarnContext(ctx, "asset cache invalidate failed",
				slog.Int64("asset_id", assetID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.listingCache != nil {
		if err := s.listingCache.Invalidate(ctx, assetID); err != nil {
			s.logger.WarnContext(ctx, "listing cache invalidate failed",
				slog.Int64("asset_id", assetID),
				slog.String("error", err.Error()),
			)
		}
		if err := s.listingCache.InvalidateActive(ctx); err != nil {
			s.logger.WarnContext(ctx, "active listings cache invalidate failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

func settleKey(assetID int64) string {
	return "settle:" + strconv.FormatInt(assetID, 10)
}
