package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// ListingStore implements domain.ListingStore using PostgreSQL.
type ListingStore struct {
	pool *pgxpool.Pool
}

// NewListingStore creates a new ListingStore backed by the given pool.
func NewListingStore(pool *pgxpool.Pool) *ListingStore {
	return &ListingStore{pool: pool}
}

const listingCols = `asset_id, seller, price, active, created_at, updated_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	var seller string
	err := row.Scan(&l.AssetID, &seller, &l.Price, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Seller = common.HexToAddress(seller)
	return l, nil
}

// Upsert inserts a listing or replaces the existing one for the same asset
// (last-list-wins).
func (s *ListingStore) Upsert(ctx context.Context, l domain.Listing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO listings (asset_id, seller, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (asset_id) DO UPDATE SET
			seller     = EXCLUDED.seller,
			price      = EXCLUDED.price,
			active     = EXCLUDED.active,
			updated_at = NOW()`,
		l.AssetID, hexAddr(l.Seller), l.Price, l.Active,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert listing %d: %w", l.AssetID, err)
	}
	return nil
}

// GetByAsset retrieves the listing for an asset, active or not.
func (s *ListingStore) GetByAsset(ctx context.Context, assetID int64) (domain.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+listingCols+` FROM listings WHERE asset_id = $1`, assetID)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, fmt.Errorf("postgres: get listing %d: %w", assetID, domain.ErrNotFound)
		}
		return domain.Listing{}, fmt.Errorf("postgres: get listing %d: %w", assetID, err)
	}
	return l, nil
}

// Deactivate marks the active listing for an asset inactive. Returns
// domain.ErrNoActiveListing when none is active.
func (s *ListingStore) Deactivate(ctx context.Context, assetID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE listings SET active = FALSE, updated_at = NOW()
		WHERE asset_id = $1 AND active`,
		assetID,
	)
	if err != nil {
		return fmt.Errorf("postgres: deactivate listing %d: %w", assetID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: deactivate listing %d: %w", assetID, domain.ErrNoActiveListing)
	}
	return nil
}

// ListActive returns all active listings in ascending asset id order, so
// query results stay deterministic regardless of listing history.
func (s *ListingStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingCols+` FROM listings WHERE active ORDER BY asset_id ASC LIMIT $1 OFFSET $2`,
		limitOf(opts), opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate listings: %w", err)
	}
	return listings, nil
}

// Compile-time interface check.
var _ domain.ListingStore = (*ListingStore)(nil)
