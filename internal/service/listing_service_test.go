package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tunemarket/tunemarket/internal/domain"
)

func newListingFixture(t *testing.T) (*memAssets, *memListings, *memEvents, *ListingService) {
	t.Helper()
	assets := newMemAssets()
	listings := newMemListings()
	events := &memEvents{}
	svc := NewListingService(listings, assets, nil, NewEvents(events, nil, testLogger()), testLogger())
	return assets, listings, events, svc
}

func TestListValidation(t *testing.T) {
	assets, _, _, svc := newListingFixture(t)
	ctx := context.Background()

	a, _ := assets.Create(ctx, alice, "", 0)

	if _, err := svc.List(ctx, a.ID, alice, 0); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Errorf("zero price error = %v, want ErrInvalidPrice", err)
	}
	if _, err := svc.List(ctx, a.ID, alice, -5); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Errorf("negative price error = %v, want ErrInvalidPrice", err)
	}
	if _, err := svc.List(ctx, a.ID, bob, 100); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("non-owner error = %v, want ErrNotOwner", err)
	}
	if _, err := svc.List(ctx, 99, alice, 100); !errors.Is(err, domain.ErrUnknownAsset) {
		t.Errorf("unknown asset error = %v, want ErrUnknownAsset", err)
	}
}

func TestListAndRelist(t *testing.T) {
	assets, listings, events, svc := newListingFixture(t)
	ctx := context.Background()

	a, _ := assets.Create(ctx, alice, "", 0)

	l, err := svc.List(ctx, a.ID, alice, 1_000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !l.Active || l.Price != 1_000 || l.Seller != alice {
		t.Errorf("listing = %+v, want active at 1000 by alice", l)
	}

	// Relisting replaces the previous listing: last list wins.
	if _, err := svc.List(ctx, a.ID, alice, 2_000); err != nil {
		t.Fatalf("relist: %v", err)
	}
	got, err := listings.GetByAsset(ctx, a.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Price != 2_000 || !got.Active {
		t.Errorf("listing after relist = %+v, want active at 2000", got)
	}

	if !hasEvent(events.types(), domain.EventListingCreated) {
		t.Error("listing.created event not logged")
	}
}

func TestCancel(t *testing.T) {
	assets, listings, events, svc := newListingFixture(t)
	ctx := context.Background()

	a, _ := assets.Create(ctx, alice, "", 0)

	if err := svc.Cancel(ctx, a.ID, alice); !errors.Is(err, domain.ErrNoActiveListing) {
		t.Errorf("cancel unlisted error = %v, want ErrNoActiveListing", err)
	}

	if _, err := svc.List(ctx, a.ID, alice, 1_000); err != nil {
		t.Fatalf("List: %v", err)
	}

	// A non-seller cannot cancel, and the listing stays active.
	if err := svc.Cancel(ctx, a.ID, bob); !errors.Is(err, domain.ErrNotSeller) {
		t.Errorf("non-seller cancel error = %v, want ErrNotSeller", err)
	}
	l, _ := listings.GetByAsset(ctx, a.ID)
	if !l.Active {
		t.Fatal("listing deactivated by non-seller cancel")
	}

	if err := svc.Cancel(ctx, a.ID, alice); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	l, _ = listings.GetByAsset(ctx, a.ID)
	if l.Active {
		t.Error("listing still active after cancel")
	}

	// Cancelling again fails: the listing is no longer active.
	if err := svc.Cancel(ctx, a.ID, alice); !errors.Is(err, domain.ErrNoActiveListing) {
		t.Errorf("double cancel error = %v, want ErrNoActiveListing", err)
	}

	if !hasEvent(events.types(), domain.EventListingCancelled) {
		t.Error("listing.cancelled event not logged")
	}
}

func TestListActive(t *testing.T) {
	assets, _, _, svc := newListingFixture(t)
	ctx := context.Background()

	a1, _ := assets.Create(ctx, alice, "", 0)
	a2, _ := assets.Create(ctx, alice, "", 0)
	a3, _ := assets.Create(ctx, alice, "", 0)

	for _, id := range []int64{a1.ID, a2.ID, a3.ID} {
		if _, err := svc.List(ctx, id, alice, 100); err != nil {
			t.Fatalf("List(%d): %v", id, err)
		}
	}
	if err := svc.Cancel(ctx, a2.ID, alice); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	active, err := svc.ListActive(ctx, domain.ListOpts{})
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
	if active[0].AssetID != a1.ID || active[1].AssetID != a3.ID {
		t.Errorf("active ids = %d,%d, want %d,%d", active[0].AssetID, active[1].AssetID, a1.ID, a3.ID)
	}
}
