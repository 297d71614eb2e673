package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

type recordingSender struct {
	mu     sync.Mutex
	name   string
	fail   bool
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	if r.fail {
		return errors.New("delivery refused")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNotifyFansOutToAllSenders(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, testLogger())

	if err := n.Notify(context.Background(), "asset.sold", "Sold", "details"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", len(a.titles), len(b.titles))
	}
}

func TestNotifyEventFilter(t *testing.T) {
	s := &recordingSender{name: "s"}
	n := NewNotifier([]Sender{s}, []string{"asset.sold"}, testLogger())
	ctx := context.Background()

	if err := n.Notify(ctx, "listing.created", "Listed", "m"); err != nil {
		t.Fatalf("filtered Notify: %v", err)
	}
	if len(s.titles) != 0 {
		t.Errorf("filtered event delivered %d times", len(s.titles))
	}

	if err := n.Notify(ctx, "asset.sold", "Sold", "m"); err != nil {
		t.Fatalf("allowed Notify: %v", err)
	}
	if len(s.titles) != 1 {
		t.Errorf("allowed event delivered %d times, want 1", len(s.titles))
	}

	// NotifyAll bypasses the filter.
	if err := n.NotifyAll(ctx, "anything", "m"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(s.titles) != 2 {
		t.Errorf("NotifyAll delivered %d times total, want 2", len(s.titles))
	}
}

func TestNotifyFailuresDoNotStopDelivery(t *testing.T) {
	bad := &recordingSender{name: "bad", fail: true}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), "asset.sold", "Sold", "m")
	if err == nil {
		t.Fatal("Notify succeeded despite failing sender")
	}
	if len(good.titles) != 1 {
		t.Errorf("good sender deliveries = %d, want 1", len(good.titles))
	}
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	if err := n.Notify(context.Background(), "asset.sold", "Sold", "m"); err != nil {
		t.Fatalf("Notify with no senders: %v", err)
	}
}
