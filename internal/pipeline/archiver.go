// Package pipeline contains the background workers: event archival and the
// notification bridge.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// Archiver exports old marketplace events from the database to object
// storage as JSONL batches and prunes the exported rows. The event log in
// Postgres stays small while the full history remains queryable offline.
type Archiver struct {
	events        domain.EventStore
	archive       domain.ArchiveWriter
	retentionDays int
	batchSize     int
	prefix        string
	logger        *slog.Logger
}

// ArchiverConfig holds archiver parameters.
type ArchiverConfig struct {
	RetentionDays int
	BatchSize     int
	Prefix        string
}

// NewArchiver creates a new Archiver.
func NewArchiver(events domain.EventStore, archive domain.ArchiveWriter, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "events"
	}
	return &Archiver{
		events:        events,
		archive:       archive,
		retentionDays: cfg.RetentionDays,
		batchSize:     batch,
		prefix:        prefix,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive pass: batches of events older than the
// retention cutoff are serialised to JSONL, uploaded, and only then deleted.
// A failed upload leaves the rows in place for the next pass.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)

	var total int64
	for {
		events, err := a.events.ListOlderThan(ctx, cutoff, a.batchSize)
		if err != nil {
			return fmt.Errorf("pipeline: archive list: %w", err)
		}
		if len(events) == 0 {
			break
		}

		lastID := events[len(events)-1].ID
		key := fmt.Sprintf("%s/%s/events-%d.jsonl",
			a.prefix, time.Now().UTC().Format("2006-01-02"), lastID)

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("pipeline: archive encode event %d: %w", e.ID, err)
			}
		}

		if err := a.archive.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
			return fmt.Errorf("pipeline: archive upload %s: %w", key, err)
		}

		deleted, err := a.events.DeleteThrough(ctx, lastID, cutoff)
		if err != nil {
			return fmt.Errorf("pipeline: archive prune: %w", err)
		}
		total += deleted

		a.logger.InfoContext(ctx, "archived event batch",
			slog.String("key", key),
			slog.Int("events", len(events)),
		)

		if len(events) < a.batchSize {
			break
		}
	}

	if total > 0 {
		a.logger.InfoContext(ctx, "archive run complete",
			slog.Time("cutoff", cutoff),
			slog.Int64("archived", total),
		)
	}
	return nil
}

// RunPeriodic runs archive passes at the given interval until the context
// is cancelled. Individual run failures are logged and retried on the next
// tick.
func (a *Archiver) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.ErrorContext(ctx, "archive run failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
