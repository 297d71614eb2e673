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

// BalanceStore implements domain.BalanceStore using PostgreSQL. Balances
// are held in the smallest currency unit; the schema enforces they never
// go negative.
type BalanceStore struct {
	pool *pgxpool.Pool
}

// NewBalanceStore creates a new BalanceStore backed by the given pool.
func NewBalanceStore(pool *pgxpool.Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// Deposit credits the account by amount, creating the row if needed.
func (s *BalanceStore) Deposit(ctx context.Context, account common.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("postgres: deposit %d: %w", amount, domain.ErrInvalidAmount)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balances (account, amount) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
		hexAddr(account), amount,
	)
	if err != nil {
		return fmt.Errorf("postgres: deposit: %w", err)
	}
	return nil
}

// Balance returns the account's current balance; accounts that never
// deposited read as zero.
func (s *BalanceStore) Balance(ctx context.Context, account common.Address) (int64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx,
		`SELECT amount FROM balances WHERE account = $1`, hexAddr(account),
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: balance: %w", err)
	}
	return amount, nil
}

// Compile-time interface check.
var _ domain.BalanceStore = (*BalanceStore)(nil)
