package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tunemarket/tunemarket/internal/domain"
	"github.com/tunemarket/tunemarket/internal/server/middleware"
)

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeAssetService implements AssetService in memory for handler tests.
type fakeAssetService struct {
	nextID int64
	assets map[int64]domain.Asset
}

func newFakeAssetService() *fakeAssetService {
	return &fakeAssetService{nextID: 1, assets: make(map[int64]domain.Asset)}
}

func (f *fakeAssetService) Mint(_ context.Context, caller common.Address, contentURI string, royaltyBps int64) (domain.Asset, error) {
	if royaltyBps < 0 || royaltyBps > domain.MaxRoyaltyBps {
		return domain.Asset{}, fmt.Errorf("mint: %w", domain.ErrInvalidRoyalty)
	}
	a := domain.Asset{
		ID:         f.nextID,
		Owner:      caller,
		Creator:    caller,
		RoyaltyBps: royaltyBps,
		ContentURI: contentURI,
	}
	f.assets[a.ID] = a
	f.nextID++
	return a, nil
}

func (f *fakeAssetService) Get(_ context.Context, assetID int64) (domain.Asset, error) {
	a, ok := f.assets[assetID]
	if !ok {
		return domain.Asset{}, fmt.Errorf("get: %w", domain.ErrUnknownAsset)
	}
	return a, nil
}

func (f *fakeAssetService) Royalty(ctx context.Context, assetID int64) (common.Address, int64, error) {
	a, err := f.Get(ctx, assetID)
	if err != nil {
		return common.Address{}, 0, err
	}
	return a.Creator, a.RoyaltyBps, nil
}

func (f *fakeAssetService) ListByOwner(_ context.Context, owner common.Address, _ domain.ListOpts) ([]domain.Asset, error) {
	var out []domain.Asset
	for _, a := range f.assets {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssetService) List(_ context.Context, _ domain.ListOpts) ([]domain.Asset, error) {
	var out []domain.Asset
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssetService) Count(context.Context) (int64, error) {
	return int64(len(f.assets)), nil
}

// newAssetMux registers the asset routes the way the server does, so path
// parameters resolve in tests.
func newAssetMux(h *AssetHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/assets", h.Mint)
	mux.HandleFunc("GET /api/assets", h.List)
	mux.HandleFunc("GET /api/assets/{id}", h.Get)
	mux.HandleFunc("GET /api/assets/{id}/royalty", h.Royalty)
	return mux
}

func TestMintHandler(t *testing.T) {
	svc := newFakeAssetService()
	mux := newAssetMux(NewAssetHandler(svc, testLogger()))

	body := `{"content_uri":"cas://abc","royalty_bps":500}`
	r := httptest.NewRequest(http.MethodPost, "/api/assets", strings.NewReader(body))
	r = r.WithContext(middleware.WithCaller(r.Context(), alice))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
	}

	var got assetJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != 1 || got.Owner != alice.Hex() || got.RoyaltyBps != 500 {
		t.Errorf("response = %+v", got)
	}
}

func TestMintHandlerRequiresCaller(t *testing.T) {
	mux := newAssetMux(NewAssetHandler(newFakeAssetService(), testLogger()))

	r := httptest.NewRequest(http.MethodPost, "/api/assets", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMintHandlerInvalidRoyalty(t *testing.T) {
	mux := newAssetMux(NewAssetHandler(newFakeAssetService(), testLogger()))

	body := `{"content_uri":"","royalty_bps":1001}`
	r := httptest.NewRequest(http.MethodPost, "/api/assets", strings.NewReader(body))
	r = r.WithContext(middleware.WithCaller(r.Context(), alice))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestGetAssetHandler(t *testing.T) {
	svc := newFakeAssetService()
	if _, err := svc.Mint(context.Background(), bob, "cas://x", 250); err != nil {
		t.Fatalf("seed mint: %v", err)
	}
	mux := newAssetMux(NewAssetHandler(svc, testLogger()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestRoyaltyHandler(t *testing.T) {
	svc := newFakeAssetService()
	if _, err := svc.Mint(context.Background(), bob, "", 750); err != nil {
		t.Fatalf("seed mint: %v", err)
	}
	mux := newAssetMux(NewAssetHandler(svc, testLogger()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets/1/royalty", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		AssetID    int64  `json:"asset_id"`
		Creator    string `json:"creator"`
		RoyaltyBps int64  `json:"royalty_bps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Creator != bob.Hex() || got.RoyaltyBps != 750 {
		t.Errorf("royalty response = %+v", got)
	}
}
