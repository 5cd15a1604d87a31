package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lucasmv/marketbot/internal/model"
	"github.com/lucasmv/marketbot/internal/normalize"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db     *pgxpool.Pool
	norm   *normalize.Normalizer
	logger *slog.Logger
}

// NewPostgres wraps a pool. The normalizer is used to validate capture
// timestamps at the ingestion boundary so the window filter can run in SQL.
func NewPostgres(db *pgxpool.Pool, norm *normalize.Normalizer, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, norm: norm, logger: logger}
}

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			ended_at TIMESTAMPTZ,
			mode TEXT,
			notes TEXT,
			matched BIGINT NOT NULL DEFAULT 0,
			filled BIGINT NOT NULL DEFAULT 0,
			closed_missing BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS my_orders_snapshots (
			id BIGSERIAL PRIMARY KEY,
			captured_at TEXT NOT NULL,
			captured_ts TIMESTAMPTZ,
			item_name TEXT,
			side TEXT,
			price TEXT,
			qty_remaining TEXT,
			settlement TEXT,
			confidence DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS my_orders (
			my_order_id BIGSERIAL PRIMARY KEY,
			item_name TEXT NOT NULL,
			side TEXT NOT NULL,
			price TEXT NOT NULL,
			qty_requested BIGINT NOT NULL,
			qty_filled BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'PENDING',
			last_seen_at TIMESTAMPTZ,
			closed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_events (
			event_id UUID PRIMARY KEY,
			my_order_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			qty_delta BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			detail JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_captured_ts
			ON my_orders_snapshots (captured_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_order_events_order
			ON order_events (my_order_id)`,
	}

	for _, stmt := range stmts {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) BeginRun(ctx context.Context, mode, notes string) (int64, error) {
	var id int64
	err := p.db.QueryRow(ctx,
		`INSERT INTO runs (mode, notes) VALUES ($1, $2) RETURNING id`,
		mode, notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (p *Postgres) EndRun(ctx context.Context, runID int64, summary model.RunSummary) error {
	if _, err := p.db.Exec(ctx, `
		UPDATE runs
		SET ended_at = now(), matched = $1, filled = $2, closed_missing = $3
		WHERE id = $4
	`, summary.Matched, summary.Filled, summary.ClosedMissing, runID); err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	return nil
}

// ImportSnapshots batch-inserts snapshot rows. The capture timestamp is
// parsed here so windowed reads can filter in SQL; rows with unparseable
// timestamps get a NULL captured_ts and survive only unwindowed reads.
func (p *Postgres) ImportSnapshots(ctx context.Context, snaps []model.MarketSnapshot) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range snaps {
		var ts *time.Time
		if t, ok := p.norm.ParseTime(s.CapturedAt); ok {
			ts = &t
		}
		batch.Queue(`
			INSERT INTO my_orders_snapshots
				(captured_at, captured_ts, item_name, side, price, qty_remaining, settlement, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, s.CapturedAt, ts, s.ItemName, s.Side, s.Price, s.QtyRemaining, s.Settlement, s.Confidence)
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	for range snaps {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return len(snaps), nil
}

func (p *Postgres) SnapshotsWithin(ctx context.Context, window time.Duration) ([]model.MarketSnapshot, error) {
	query := `
		SELECT id, captured_at, COALESCE(item_name, ''), COALESCE(side, ''),
		       COALESCE(price, ''), COALESCE(qty_remaining, ''),
		       COALESCE(settlement, ''), COALESCE(confidence, 0)
		FROM my_orders_snapshots
	`
	var args []any
	if window > 0 {
		query += ` WHERE captured_ts >= now() - $1::interval`
		args = append(args, window.String())
	}
	query += ` ORDER BY id`

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.MarketSnapshot
	for rows.Next() {
		var s model.MarketSnapshot
		if err := rows.Scan(&s.ID, &s.CapturedAt, &s.ItemName, &s.Side,
			&s.Price, &s.QtyRemaining, &s.Settlement, &s.Confidence); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

func (p *Postgres) OpenOrders(ctx context.Context) ([]model.TrackedOrder, error) {
	rows, err := p.db.Query(ctx, `
		SELECT my_order_id, item_name, side, price, qty_requested, qty_filled,
		       status, last_seen_at, closed_at
		FROM my_orders
		WHERE status IN ($1, $2, $3)
		ORDER BY my_order_id
	`, model.StatusPending, model.StatusActive, model.StatusPartial)
	if err != nil {
		return nil, fmt.Errorf("query open orders: %w", err)
	}
	defer rows.Close()

	var orders []model.TrackedOrder
	for rows.Next() {
		var o model.TrackedOrder
		if err := rows.Scan(&o.ID, &o.ItemName, &o.Side, &o.Price,
			&o.QtyRequested, &o.QtyFilled, &o.Status, &o.LastSeenAt, &o.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (p *Postgres) MarkSeen(ctx context.Context, orderID int64, at time.Time, ev model.OrderEvent) error {
	return p.mutate(ctx, ev, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE my_orders SET last_seen_at = $1 WHERE my_order_id = $2`,
			at, orderID,
		)
		return err
	})
}

func (p *Postgres) ApplyFill(ctx context.Context, orderID int64, delta int64, status model.OrderStatus, at time.Time, ev model.OrderEvent) error {
	if delta <= 0 {
		return fmt.Errorf("apply fill: non-positive delta %d", delta)
	}
	return p.mutate(ctx, ev, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE my_orders
			SET qty_filled = LEAST(qty_requested, qty_filled + $1),
			    status = $2,
			    closed_at = CASE WHEN $3 THEN $4 ELSE closed_at END
			WHERE my_order_id = $5
		`, delta, status, status.Terminal(), at, orderID)
		return err
	})
}

func (p *Postgres) CloseOrder(ctx context.Context, orderID int64, status model.OrderStatus, at time.Time, ev model.OrderEvent) error {
	return p.mutate(ctx, ev, func(tx pgx.Tx) error {
		// Guarded by the open statuses so a re-close never rewrites a
		// terminal order; the event below is appended either way.
		_, err := tx.Exec(ctx, `
			UPDATE my_orders
			SET status = $1, closed_at = $2
			WHERE my_order_id = $3 AND status IN ($4, $5, $6)
		`, status, at, orderID,
			model.StatusPending, model.StatusActive, model.StatusPartial)
		return err
	})
}

func (p *Postgres) AppendEvent(ctx context.Context, ev model.OrderEvent) error {
	detail, err := marshalDetail(ev.Detail)
	if err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, insertEventSQL,
		ev.ID, ev.OrderID, ev.Kind, ev.QtyDelta, ev.Status, detail, ev.CreatedAt); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

const insertEventSQL = `
	INSERT INTO order_events (event_id, my_order_id, kind, qty_delta, status, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// mutate runs an order update and the event append in one transaction.
func (p *Postgres) mutate(ctx context.Context, ev model.OrderEvent, update func(pgx.Tx) error) error {
	detail, err := marshalDetail(ev.Detail)
	if err != nil {
		return err
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := update(tx); err != nil {
		return fmt.Errorf("update order %d: %w", ev.OrderID, err)
	}
	if _, err := tx.Exec(ctx, insertEventSQL,
		ev.ID, ev.OrderID, ev.Kind, ev.QtyDelta, ev.Status, detail, ev.CreatedAt); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func marshalDetail(detail map[string]any) ([]byte, error) {
	if detail == nil {
		return nil, nil
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("marshal event detail: %w", err)
	}
	return b, nil
}
