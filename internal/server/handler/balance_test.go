package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
	"github.com/tunemarket/tunemarket/internal/server/middleware"
)

// fakeBalanceStore implements domain.BalanceStore in memory with the same
// amount validation as the SQL store.
type fakeBalanceStore struct {
	balances map[common.Address]int64
}

func newFakeBalanceStore() *fakeBalanceStore {
	return &fakeBalanceStore{balances: make(map[common.Address]int64)}
}

func (f *fakeBalanceStore) Deposit(_ context.Context, account common.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit %d: %w", amount, domain.ErrInvalidAmount)
	}
	f.balances[account] += amount
	return nil
}

func (f *fakeBalanceStore) Balance(_ context.Context, account common.Address) (int64, error) {
	return f.balances[account], nil
}

func newBalanceMux(h *BalanceHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/balances/{address}", h.Get)
	mux.HandleFunc("POST /api/balances/deposit", h.Deposit)
	return mux
}

func TestDepositHandler(t *testing.T) {
	store := newFakeBalanceStore()
	mux := newBalanceMux(NewBalanceHandler(store, testLogger()))

	r := httptest.NewRequest(http.MethodPost, "/api/balances/deposit",
		strings.NewReader(`{"amount":250000}`))
	r = r.WithContext(middleware.WithCaller(r.Context(), alice))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var got struct {
		Account string `json:"account"`
		Amount  int64  `json:"amount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Account != alice.Hex() || got.Amount != 250_000 {
		t.Errorf("response = %+v", got)
	}
}

func TestDepositHandlerRejectsNonPositiveAmount(t *testing.T) {
	store := newFakeBalanceStore()
	mux := newBalanceMux(NewBalanceHandler(store, testLogger()))

	for _, amount := range []int64{0, -5} {
		r := httptest.NewRequest(http.MethodPost, "/api/balances/deposit",
			strings.NewReader(fmt.Sprintf(`{"amount":%d}`, amount)))
		r = r.WithContext(middleware.WithCaller(r.Context(), alice))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, r)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("amount %d: status = %d, want 422", amount, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), domain.ErrInvalidAmount.Error()) {
			t.Errorf("amount %d: body = %s, want %q", amount, rec.Body, domain.ErrInvalidAmount)
		}
		if store.balances[alice] != 0 {
			t.Errorf("amount %d: balance = %d, want 0", amount, store.balances[alice])
		}
	}
}

func TestGetBalanceHandler(t *testing.T) {
	store := newFakeBalanceStore()
	store.balances[bob] = 42
	mux := newBalanceMux(NewBalanceHandler(store, testLogger()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balances/"+bob.Hex(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"amount":42`) {
		t.Errorf("body = %s, want amount 42", rec.Body)
	}

	// Unknown accounts read as zero, bad addresses are rejected.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balances/"+alice.Hex(), nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"amount":0`) {
		t.Errorf("unknown account status = %d body = %s, want 200 amount 0", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balances/nothex", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad address status = %d, want 400", rec.Code)
	}
}
