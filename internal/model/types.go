package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Enumerations
// -----------------------------------------------------------------------------

// Side is the order-book side an order or snapshot belongs to.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus is the lifecycle state of a tracked order.
//
// PENDING, ACTIVE and PARTIAL are the open states; everything else is
// terminal. Operators may close orders with a custom status string, so the
// type is open-ended rather than a closed set.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusActive    OrderStatus = "ACTIVE"
	StatusPartial   OrderStatus = "PARTIAL"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether the status ends the order's lifecycle.
// Any status outside the three open states counts as terminal, which is what
// lets custom closure statuses work.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusPending, StatusActive, StatusPartial:
		return false
	}
	return true
}

// EventKind classifies an audit event appended to an order's trail.
type EventKind string

const (
	EventSeen    EventKind = "SEEN"    // a snapshot corroborated the order
	EventFill    EventKind = "FILL"    // a positive fill delta was applied
	EventClose   EventKind = "CLOSE"   // the order reached a terminal status
	EventMissing EventKind = "MISSING" // no snapshot matched this run
	EventError   EventKind = "ERROR"   // data defect while processing the order
)

// -----------------------------------------------------------------------------
// Store rows
// -----------------------------------------------------------------------------

// MarketSnapshot is one OCR-read order-book row at a point in time.
// Text fields hold whatever the OCR engine produced; the reconciler's
// normalizer decides what is usable. Snapshots are append-only.
type MarketSnapshot struct {
	ID           int64   // Store row ID
	CapturedAt   string  // Capture timestamp as recorded (may fail to parse)
	ItemName     string  // Item name as OCR-read
	Side         string  // "BUY" or "SELL" (any case on ingest)
	Price        string  // Raw price text; rows without a parseable price are unusable
	QtyRemaining string  // Raw remaining quantity; empty means unknown
	Settlement   string  // Optional settlement/location tag
	Confidence   float64 // OCR confidence, 0-1
}

// TrackedOrder is a locally recorded belief that an order is resting in the
// market. Mutated only by the reconciler (mark-seen, fill, close); immutable
// once a terminal status is set.
type TrackedOrder struct {
	ID           int64
	ItemName     string
	Side         string
	Price        string // Raw price text as entered/read
	QtyRequested int64
	QtyFilled    int64 // 0 <= QtyFilled <= QtyRequested, monotonically non-decreasing
	Status       OrderStatus
	LastSeenAt   *time.Time // Last time a snapshot matched; nil if never
	ClosedAt     *time.Time // Set once terminal
}

// Open reports whether the order should still be considered for matching.
func (o TrackedOrder) Open() bool {
	return !o.Status.Terminal()
}

// OrderEvent is one append-only audit record for a tracked order mutation.
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   int64
	Kind      EventKind
	QtyDelta  int64 // Fill delta for FILL events, 0 otherwise
	Status    OrderStatus
	Detail    map[string]any // Free-form structured payload
	CreatedAt time.Time
}

// NewOrderEvent builds an event with a fresh ID and the given timestamp.
func NewOrderEvent(orderID int64, kind EventKind, status OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		ID:        uuid.New(),
		OrderID:   orderID,
		Kind:      kind,
		Status:    status,
		CreatedAt: at,
	}
}

// -----------------------------------------------------------------------------
// Run bookkeeping
// -----------------------------------------------------------------------------

// RunSummary aggregates one reconciliation pass for observability.
type RunSummary struct {
	Matched       int // Orders corroborated by at least one snapshot
	Filled        int // Orders that reached FILLED this run
	ClosedMissing int // Orders closed by the staleness rule this run
}
