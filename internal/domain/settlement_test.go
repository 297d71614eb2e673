package domain

import (
	"math"
	"testing"
)

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		name       string
		price      int64
		royaltyBps int64
		feeBps     int64
		royalty    int64
		fee        int64
		seller     int64
	}{
		{
			name:       "typical sale",
			price:      1_000_000,
			royaltyBps: 500,
			feeBps:     250,
			royalty:    50_000,
			fee:        25_000,
			seller:     925_000,
		},
		{
			name:       "zero royalty",
			price:      1_000_000,
			royaltyBps: 0,
			feeBps:     250,
			royalty:    0,
			fee:        25_000,
			seller:     975_000,
		},
		{
			name:       "zero fee",
			price:      1_000_000,
			royaltyBps: 500,
			feeBps:     0,
			royalty:    50_000,
			fee:        0,
			seller:     950_000,
		},
		{
			name:       "floor rounding",
			price:      999,
			royaltyBps: 500,
			feeBps:     250,
			royalty:    49, // floor(999*0.05)
			fee:        24, // floor(999*0.025)
			seller:     926,
		},
		{
			name:       "price of one",
			price:      1,
			royaltyBps: 1000,
			feeBps:     10000,
			royalty:    0,
			fee:        1,
			seller:     0,
		},
		{
			name:       "max royalty and full fee",
			price:      10_000,
			royaltyBps: 1000,
			feeBps:     9000,
			royalty:    1_000,
			fee:        9_000,
			seller:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := SplitPrice(tt.price, tt.royaltyBps, tt.feeBps)
			if err != nil {
				t.Fatalf("SplitPrice(%d, %d, %d) error: %v", tt.price, tt.royaltyBps, tt.feeBps, err)
			}
			if split.RoyaltyAmount != tt.royalty {
				t.Errorf("royalty = %d, want %d", split.RoyaltyAmount, tt.royalty)
			}
			if split.FeeAmount != tt.fee {
				t.Errorf("fee = %d, want %d", split.FeeAmount, tt.fee)
			}
			if split.SellerAmount != tt.seller {
				t.Errorf("seller = %d, want %d", split.SellerAmount, tt.seller)
			}
			if sum := split.RoyaltyAmount + split.FeeAmount + split.SellerAmount; sum != tt.price {
				t.Errorf("split sums to %d, want price %d", sum, tt.price)
			}
		})
	}
}

func TestSplitPriceSumsExactly(t *testing.T) {
	prices := []int64{1, 2, 3, 9_999, 10_000, 10_001, 123_456_789, math.MaxInt64}
	rates := []int64{0, 1, 99, 100, 250, 500, 999, 1000}

	for _, price := range prices {
		for _, royalty := range rates {
			for _, fee := range rates {
				split, err := SplitPrice(price, royalty, fee)
				if err != nil {
					t.Fatalf("SplitPrice(%d, %d, %d) error: %v", price, royalty, fee, err)
				}
				if sum := split.RoyaltyAmount + split.FeeAmount + split.SellerAmount; sum != price {
					t.Fatalf("SplitPrice(%d, %d, %d) sums to %d", price, royalty, fee, sum)
				}
				if split.RoyaltyAmount < 0 || split.FeeAmount < 0 || split.SellerAmount < 0 {
					t.Fatalf("SplitPrice(%d, %d, %d) produced a negative amount: %+v", price, royalty, fee, split)
				}
			}
		}
	}
}

func TestSplitPriceFeeOverflow(t *testing.T) {
	// Royalty plus fee above 100% must be rejected, not silently negative.
	if _, err := SplitPrice(10_000, 1000, 9500); err != ErrFeeOverflow {
		t.Fatalf("SplitPrice error = %v, want ErrFeeOverflow", err)
	}
}

func TestMulBpsMatchesExactMath(t *testing.T) {
	// mulBps must equal floor(amount*bps/10000) even where the naive
	// product overflows int64.
	tests := []struct {
		amount int64
		bps    int64
		want   int64
	}{
		{0, 500, 0},
		{10_000, 10_000, 10_000},
		{10_001, 1, 1},
		{9_999, 1, 0},
		{math.MaxInt64, 10_000, math.MaxInt64},
		{math.MaxInt64, 5_000, math.MaxInt64 / 2},
	}
	for _, tt := range tests {
		if got := mulBps(tt.amount, tt.bps); got != tt.want {
			t.Errorf("mulBps(%d, %d) = %d, want %d", tt.amount, tt.bps, got, tt.want)
		}
	}
}

func TestReceiptPayment(t *testing.T) {
	r := Receipt{Price: 1_000_000, Refund: 200_000}
	if got := r.Payment(); got != 1_200_000 {
		t.Errorf("Payment() = %d, want 1200000", got)
	}
}
