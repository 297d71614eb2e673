package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// hexAddr normalises an address for storage. Addresses are stored lowercase
// so equality predicates work without case folding.
func hexAddr(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// AssetStore implements domain.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *pgxpool.Pool
}

// NewAssetStore creates a new AssetStore backed by the given connection pool.
func NewAssetStore(pool *pgxpool.Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

const assetCols = `id, owner, creator, royalty_bps, content_uri, created_at, updated_at`

// scanAsset scans a single asset row into a domain.Asset.
func scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	var owner, creator string
	err := row.Scan(&a.ID, &owner, &creator, &a.RoyaltyBps, &a.ContentURI, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Asset{}, err
	}
	a.Owner = common.HexToAddress(owner)
	a.Creator = common.HexToAddress(creator)
	return a, nil
}

// Create inserts a new asset and returns it with its assigned id. The id
// sequence starts at 1 and ids are never reused.
func (s *AssetStore) Create(ctx context.Context, owner common.Address, contentURI string, royaltyBps int64) (domain.Asset, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO assets (owner, creator, royalty_bps, content_uri)
		VALUES ($1, $1, $2, $3)
		RETURNING `+assetCols,
		hexAddr(owner), royaltyBps, contentURI,
	)
	a, err := scanAsset(row)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("postgres: create asset: %w", err)
	}
	return a, nil
}

// GetByID retrieves an asset by id. Returns domain.ErrUnknownAsset when the
// id was never assigned.
func (s *AssetStore) GetByID(ctx context.Context, id int64) (domain.Asset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+assetCols+` FROM assets WHERE id = $1`, id)
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, fmt.Errorf("postgres: get asset %d: %w", id, domain.ErrUnknownAsset)
		}
		return domain.Asset{}, fmt.Errorf("postgres: get asset %d: %w", id, err)
	}
	return a, nil
}

// UpdateOwner moves ownership of the asset from one address to another. The
// update is conditional on `from` being the current owner.
func (s *AssetStore) UpdateOwner(ctx context.Context, id int64, from, to common.Address) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE assets SET owner = $3, updated_at = NOW()
		WHERE id = $1 AND owner = $2`,
		id, hexAddr(from), hexAddr(to),
	)
	if err != nil {
		return fmt.Errorf("postgres: update asset %d owner: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing asset from a stale owner.
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("postgres: update asset %d owner: %w", id, domain.ErrNotOwner)
	}
	return nil
}

// ListByOwner returns the assets currently owned by the given address,
// ascending by id.
func (s *AssetStore) ListByOwner(ctx context.Context, owner common.Address, opts domain.ListOpts) ([]domain.Asset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+assetCols+` FROM assets WHERE owner = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`,
		hexAddr(owner), limitOf(opts), opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list assets by owner: %w", err)
	}
	defer rows.Close()
	return collectAssets(rows)
}

// List returns all assets ascending by id.
func (s *AssetStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Asset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+assetCols+` FROM assets ORDER BY id ASC LIMIT $1 OFFSET $2`,
		limitOf(opts), opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list assets: %w", err)
	}
	defer rows.Close()
	return collectAssets(rows)
}

// Count returns the total number of minted assets.
func (s *AssetStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count assets: %w", err)
	}
	return n, nil
}

func collectAssets(rows pgx.Rows) ([]domain.Asset, error) {
	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate assets: %w", err)
	}
	return assets, nil
}

// limitOf applies the default page size when the caller passed none.
func limitOf(opts domain.ListOpts) int {
	if opts.Limit <= 0 {
		return 100
	}
	return opts.Limit
}

// Compile-time interface check.
var _ domain.AssetStore = (*AssetStore)(nil)
