package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tunemarket/tunemarket/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeEventStore is an in-memory event log for archiver tests.
type fakeEventStore struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeEventStore) Log(_ context.Context, eventType string, assetID int64, detail map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, domain.Event{
		ID:        int64(len(f.events) + 1),
		Type:      eventType,
		AssetID:   assetID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (f *fakeEventStore) List(_ context.Context, _ domain.ListOpts) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Event, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeEventStore) ListOlderThan(_ context.Context, cutoff time.Time, limit int) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.events {
		if e.CreatedAt.Before(cutoff) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeEventStore) DeleteThrough(_ context.Context, throughID int64, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Event
	var deleted int64
	for _, e := range f.events {
		if e.ID <= throughID && e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.events = kept
	return deleted, nil
}

func (f *fakeEventStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// fakeArchive captures uploaded objects, optionally failing every Put.
type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte)}
}

func (f *fakeArchive) Put(_ context.Context, key string, body io.Reader, _ string) error {
	if f.fail {
		return errors.New("upload refused")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeArchive) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BlobInfo
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, domain.BlobInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func seedEvents(store *fakeEventStore, n int, age time.Duration) {
	base := time.Now().UTC().Add(-age)
	for i := 0; i < n; i++ {
		store.events = append(store.events, domain.Event{
			ID:        int64(len(store.events) + 1),
			Type:      domain.EventAssetSold,
			AssetID:   int64(i + 1),
			Detail:    map[string]any{"price": 100},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
}

func TestArchiverExportsAndPrunes(t *testing.T) {
	store := &fakeEventStore{}
	seedEvents(store, 5, 45*24*time.Hour) // well past retention
	seedEvents(store, 3, time.Hour)       // recent, must stay

	archive := newFakeArchive()
	a := NewArchiver(store, archive, ArchiverConfig{
		RetentionDays: 30,
		BatchSize:     10,
		Prefix:        "events",
	}, testLogger())

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := store.count(); got != 3 {
		t.Errorf("events remaining = %d, want 3", got)
	}
	if len(archive.objects) != 1 {
		t.Fatalf("archive objects = %d, want 1", len(archive.objects))
	}

	for key, data := range archive.objects {
		if !strings.HasPrefix(key, "events/") || !strings.HasSuffix(key, ".jsonl") {
			t.Errorf("unexpected archive key %q", key)
		}

		// Each line is one JSON event; all five old events are present.
		var lines int
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			var e domain.Event
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				t.Fatalf("bad JSONL line: %v", err)
			}
			lines++
		}
		if lines != 5 {
			t.Errorf("archived lines = %d, want 5", lines)
		}
	}
}

func TestArchiverBatches(t *testing.T) {
	store := &fakeEventStore{}
	seedEvents(store, 25, 45*24*time.Hour)

	archive := newFakeArchive()
	a := NewArchiver(store, archive, ArchiverConfig{
		RetentionDays: 30,
		BatchSize:     10,
		Prefix:        "events",
	}, testLogger())

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := store.count(); got != 0 {
		t.Errorf("events remaining = %d, want 0", got)
	}
	if len(archive.objects) != 3 {
		t.Errorf("archive objects = %d, want 3 batches", len(archive.objects))
	}
}

func TestArchiverKeepsRowsOnUploadFailure(t *testing.T) {
	store := &fakeEventStore{}
	seedEvents(store, 5, 45*24*time.Hour)

	archive := newFakeArchive()
	archive.fail = true
	a := NewArchiver(store, archive, ArchiverConfig{
		RetentionDays: 30,
		BatchSize:     10,
		Prefix:        "events",
	}, testLogger())

	if err := a.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite upload failure")
	}
	if got := store.count(); got != 5 {
		t.Errorf("events remaining = %d, want 5 (nothing pruned)", got)
	}
}

func TestArchiverPrunesOnlyArchivedRows(t *testing.T) {
	// Event id 3 carries a recent timestamp despite its low id, so it is
	// never part of the archived batch. The prune must leave it alone even
	// though its id is below the batch's last id.
	store := &fakeEventStore{}
	old := time.Now().UTC().Add(-45 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)
	for i, ts := range []time.Time{old, old, recent, old, old} {
		store.events = append(store.events, domain.Event{
			ID:        int64(i + 1),
			Type:      domain.EventAssetSold,
			AssetID:   int64(i + 1),
			CreatedAt: ts,
		})
	}

	archive := newFakeArchive()
	a := NewArchiver(store, archive, ArchiverConfig{
		RetentionDays: 30,
		BatchSize:     10,
		Prefix:        "events",
	}, testLogger())

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := store.count(); got != 1 {
		t.Fatalf("events remaining = %d, want 1", got)
	}
	store.mu.Lock()
	survivor := store.events[0]
	store.mu.Unlock()
	if survivor.ID != 3 {
		t.Errorf("surviving event id = %d, want 3", survivor.ID)
	}
}

func TestArchiverNoOldEvents(t *testing.T) {
	store := &fakeEventStore{}
	seedEvents(store, 3, time.Hour)

	archive := newFakeArchive()
	a := NewArchiver(store, archive, ArchiverConfig{
		RetentionDays: 30,
		BatchSize:     10,
		Prefix:        "events",
	}, testLogger())

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := store.count(); got != 3 {
		t.Errorf("events remaining = %d, want 3", got)
	}
	if len(archive.objects) != 0 {
		t.Errorf("archive objects = %d, want 0", len(archive.objects))
	}
}
