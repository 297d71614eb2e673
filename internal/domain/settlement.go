package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Split is the exact three-way division of a listing price.
type Split struct {
	RoyaltyAmount int64
	FeeAmount     int64
	SellerAmount  int64
}

// SplitPrice divides price between creator royalty, marketplace fee, and
// seller proceeds using floor division on basis points. The three amounts
// always sum to price exactly. Returns ErrFeeOverflow if royalty plus fee
// would exceed the price; the bps bounds make that unreachable, but the
// guard stays.
func SplitPrice(price, royaltyBps, feeBps int64) (Split, error) {
	royalty := mulBps(price, royaltyBps)
	fee := mulBps(price, feeBps)
	seller := price - royalty - fee
	if seller < 0 {
		return Split{}, ErrFeeOverflow
	}
	return Split{
		RoyaltyAmount: royalty,
		FeeAmount:     fee,
		SellerAmount:  seller,
	}, nil
}

// mulBps computes floor(amount*bps/10000) without overflowing int64 for any
// amount: the quotient and remainder are scaled separately and rBps stays
// below 1e8.
func mulBps(amount, bps int64) int64 {
	q := amount / BpsDenominator
	r := amount % BpsDenominator
	return q*bps + r*bps/BpsDenominator
}

// Receipt records one completed purchase: who paid whom, the exact split,
// and any overpayment refunded to the buyer.
type Receipt struct {
	ID            string
	AssetID       int64
	Seller        common.Address
	Buyer         common.Address
	Creator       common.Address
	FeeRecipient  common.Address
	Price         int64
	RoyaltyAmount int64
	FeeAmount     int64
	SellerAmount  int64
	Refund        int64
	CreatedAt     time.Time
}

// Payment returns the total amount the buyer committed, price plus refund.
func (r Receipt) Payment() int64 {
	return r.Price + r.Refund
}
