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

// ReceiptStore implements domain.ReceiptStore using PostgreSQL. Receipts
// are written by the settlement transaction; this store only reads them.
type ReceiptStore struct {
	pool *pgxpool.Pool
}

// NewReceiptStore creates a new ReceiptStore backed by the given pool.
func NewReceiptStore(pool *pgxpool.Pool) *ReceiptStore {
	return &ReceiptStore{pool: pool}
}

const receiptCols = `id, asset_id, seller, buyer, creator, fee_recipient,
	price, royalty_amount, fee_amount, seller_amount, refund, created_at`

func scanReceipt(row pgx.Row) (domain.Receipt, error) {
	var r domain.Receipt
	var seller, buyer, creator, feeRecipient string
	err := row.Scan(
		&r.ID, &r.AssetID, &seller, &buyer, &creator, &feeRecipient,
		&r.Price, &r.RoyaltyAmount, &r.FeeAmount, &r.SellerAmount, &r.Refund,
		&r.CreatedAt,
	)
	if err != nil {
		return domain.Receipt{}, err
	}
	r.Seller = common.HexToAddress(seller)
	r.Buyer = common.HexToAddress(buyer)
	r.Creator = common.HexToAddress(creator)
	r.FeeRecipient = common.HexToAddress(feeRecipient)
	return r, nil
}

// GetByID retrieves a receipt by its uuid.
func (s *ReceiptStore) GetByID(ctx context.Context, id string) (domain.Receipt, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+receiptCols+` FROM receipts WHERE id = $1`, id)
	r, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Receipt{}, fmt.Errorf("postgres: get receipt %s: %w", id, domain.ErrNotFound)
		}
		return domain.Receipt{}, fmt.Errorf("postgres: get receipt %s: %w", id, err)
	}
	return r, nil
}

// ListByAsset returns the sale history of one asset, newest first.
func (s *ReceiptStore) ListByAsset(ctx context.Context, assetID int64, opts domain.ListOpts) ([]domain.Receipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+receiptCols+` FROM receipts WHERE asset_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		assetID, limitOf(opts), opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list receipts for asset %d: %w", assetID, err)
	}
	defer rows.Close()
	return collectReceipts(rows)
}

// ListByAccount returns receipts where the account was buyer or seller,
// newest first.
func (s *ReceiptStore) ListByAccount(ctx context.Context, account common.Address, opts domain.ListOpts) ([]domain.Receipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+receiptCols+` FROM receipts WHERE buyer = $1 OR seller = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		hexAddr(account), limitOf(opts), opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list receipts for account: %w", err)
	}
	defer rows.Close()
	return collectReceipts(rows)
}

func collectReceipts(rows pgx.Rows) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate receipts: %w", err)
	}
	return receipts, nil
}

// Compile-time interface check.
var _ domain.ReceiptStore = (*ReceiptStore)(nil)
