package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// SettlementStore implements domain.SettlementStore. Apply executes every
// effect of a purchase inside a single transaction so the settlement is
// all-or-nothing from any observer's point of view.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a new SettlementStore backed by the given pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Apply commits a fully computed settlement: debit the buyer by the total
// payment, credit the payees, move asset ownership seller -> buyer,
// deactivate the listing, and insert the receipt. Any failure rolls the
// whole transaction back; a buyer balance short of the payment fails with
// domain.ErrTransferFailed.
func (s *SettlementStore) Apply(ctx context.Context, r domain.Receipt) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("postgres: begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	// Debit the buyer. The predicate doubles as the funds check; zero rows
	// affected means the balance cannot cover the payment.
	payment := r.Payment()
	tag, err := tx.Exec(ctx, `
		UPDATE balances SET amount = amount - $2
		WHERE account = $1 AND amount >= $2`,
		hexAddr(r.Buyer), payment,
	)
	if err != nil {
		return fmt.Errorf("postgres: settlement debit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: settlement debit %d from %s: %w",
			payment, r.Buyer, domain.ErrTransferFailed)
	}

	// Credit payees. When seller == creator the amounts merge into one
	// credit; the refund goes back to the buyer.
	for account, amount := range creditPlan(r) {
		if amount == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO balances (account, amount) VALUES ($1, $2)
			ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
			account, amount,
		); err != nil {
			return fmt.Errorf("postgres: settlement credit %s: %w", account, err)
		}
	}

	// Move asset ownership, conditional on the seller still owning it.
	tag, err = tx.Exec(ctx, `
		UPDATE assets SET owner = $3, updated_at = NOW()
		WHERE id = $1 AND owner = $2`,
		r.AssetID, hexAddr(r.Seller), hexAddr(r.Buyer),
	)
	if err != nil {
		return fmt.Errorf("postgres: settlement transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: settlement transfer asset %d: %w",
			r.AssetID, domain.ErrNotOwner)
	}

	// Deactivate the listing; it must still be active at the settled price.
	// A seller relisting at a different price between the read and this
	// transaction fails the predicate and rolls the settlement back.
	tag, err = tx.Exec(ctx, `
		UPDATE listings SET active = FALSE, updated_at = NOW()
		WHERE asset_id = $1 AND active AND seller = $2 AND price = $3`,
		r.AssetID, hexAddr(r.Seller), r.Price,
	)
	if err != nil {
		return fmt.Errorf("postgres: settlement deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: settlement deactivate asset %d: %w",
			r.AssetID, domain.ErrNoActiveListing)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO receipts (
			id, asset_id, seller, buyer, creator, fee_recipient,
			price, royalty_amount, fee_amount, seller_amount, refund
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.AssetID, hexAddr(r.Seller), hexAddr(r.Buyer),
		hexAddr(r.Creator), hexAddr(r.FeeRecipient),
		r.Price, r.RoyaltyAmount, r.FeeAmount, r.SellerAmount, r.Refund,
	); err != nil {
		return fmt.Errorf("postgres: settlement receipt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit settlement: %w", err)
	}
	return nil
}

// creditPlan folds the receipt's disbursements into one credit per account.
func creditPlan(r domain.Receipt) map[string]int64 {
	plan := make(map[string]int64, 4)
	add := func(a common.Address, amount int64) {
		if amount > 0 {
			plan[hexAddr(a)] += amount
		}
	}
	add(r.Seller, r.SellerAmount)
	add(r.Creator, r.RoyaltyAmount)
	add(r.FeeRecipient, r.FeeAmount)
	add(r.Buyer, r.Refund)
	return plan
}

// Compile-time interface check.
var _ domain.SettlementStore = (*SettlementStore)(nil)
