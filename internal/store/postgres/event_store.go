package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// EventStore implements domain.EventStore, an append-only marketplace
// event log, using PostgreSQL.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Log appends one event. Detail may be nil.
func (s *EventStore) Log(ctx context.Context, eventType string, assetID int64, detail map[string]any) error {
	if detail == nil {
		detail = map[string]any{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (type, asset_id, detail) VALUES ($1, $2, $3)`,
		eventType, assetID, detail,
	)
	if err != nil {
		return fmt.Errorf("postgres: log event %s: %w", eventType, err)
	}
	return nil
}

const eventCols = `id, type, asset_id, detail, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	if err := row.Scan(&e.ID, &e.Type, &e.AssetID, &e.Detail, &e.CreatedAt); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

// List returns events newest first.
func (s *EventStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventCols+` FROM events ORDER BY id DESC LIMIT $1 OFFSET $2`,
		limitOf(opts), opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListOlderThan returns up to limit events created before cutoff in
// ascending id order. Used by the archiver to drain the log in stable
// batches.
func (s *EventStore) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventCols+` FROM events WHERE created_at < $1 ORDER BY id ASC LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events older than %s: %w", cutoff, err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// DeleteThrough removes events with id <= throughID created before cutoff
// and returns the number deleted. Only the archiver calls this, after a
// successful export; the cutoff guarantees a row outside the archived batch
// is never pruned, even if id and timestamp order disagree.
func (s *EventStore) DeleteThrough(ctx context.Context, throughID int64, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM events WHERE id <= $1 AND created_at < $2`, throughID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete events through %d: %w", throughID, err)
	}
	return tag.RowsAffected(), nil
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate events: %w", err)
	}
	return events, nil
}

// Compile-time interface check.
var _ domain.EventStore = (*EventStore)(nil)
