package store

import (
	"context"
	"time"

	"github.com/lucasmv/marketbot/internal/model"
)

// Store is what the reconciler needs from persistence.
type Store interface {
	// BeginRun opens a run row and returns its ID.
	BeginRun(ctx context.Context, mode, notes string) (int64, error)

	// EndRun stamps the run's ended_at and records its summary counters.
	EndRun(ctx context.Context, runID int64, summary model.RunSummary) error

	// ImportSnapshots appends snapshot rows and returns how many were stored.
	ImportSnapshots(ctx context.Context, snaps []model.MarketSnapshot) (int, error)

	// SnapshotsWithin returns snapshots captured within the lookback window,
	// in ingestion order. A window <= 0 disables the time filter. Rows whose
	// capture timestamp could not be parsed at ingest are excluded when the
	// filter is on (their recency is unknowable) and included when it is off.
	SnapshotsWithin(ctx context.Context, window time.Duration) ([]model.MarketSnapshot, error)

	// OpenOrders returns tracked orders in a non-terminal status.
	OpenOrders(ctx context.Context) ([]model.TrackedOrder, error)

	// MarkSeen updates the order's last-seen timestamp and appends ev
	// atomically.
	MarkSeen(ctx context.Context, orderID int64, at time.Time, ev model.OrderEvent) error

	// ApplyFill adds delta to the order's filled quantity, sets status, and
	// appends ev atomically. Delta must be positive. A terminal status also
	// stamps the closed timestamp, so a completing fill is one transaction.
	ApplyFill(ctx context.Context, orderID int64, delta int64, status model.OrderStatus, at time.Time, ev model.OrderEvent) error

	// CloseOrder sets a terminal status and closed timestamp, appending ev
	// atomically. Re-closing a terminal order is a no-op for the order row
	// but the event is still appended.
	CloseOrder(ctx context.Context, orderID int64, status model.OrderStatus, at time.Time, ev model.OrderEvent) error

	// AppendEvent records a stand-alone diagnostic event (MISSING, ERROR).
	AppendEvent(ctx context.Context, ev model.OrderEvent) error
}
