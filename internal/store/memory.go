package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lucasmv/marketbot/internal/model"
	"github.com/lucasmv/marketbot/internal/normalize"
)

// errMutateFailed simulates a storage-layer failure in tests.
var errMutateFailed = errors.New("store: mutation failed")

// Memory is an in-memory Store used by tests and dry runs. It mirrors the
// Postgres semantics, including the windowed-read behavior for snapshots
// with unparseable capture timestamps.
type Memory struct {
	mu sync.Mutex

	norm *normalize.Normalizer
	now  func() time.Time

	nextSnapID  int64
	nextRunID   int64
	snaps       []model.MarketSnapshot
	orders      map[int64]*model.TrackedOrder
	events      []model.OrderEvent
	summaries   []model.RunSummary
	openRuns    map[int64]bool
	FailMutates bool // when set, every order mutation returns errMutateFailed
}

// NewMemory creates an empty in-memory store. A nil now defaults to
// time.Now; tests pass a fixed clock.
func NewMemory(norm *normalize.Normalizer, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		norm:     norm,
		now:      now,
		orders:   make(map[int64]*model.TrackedOrder),
		openRuns: make(map[int64]bool),
	}
}

// PutOrder seeds a tracked order, assigning an ID if absent.
func (m *Memory) PutOrder(o model.TrackedOrder) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		o.ID = int64(len(m.orders) + 1)
	}
	cp := o
	m.orders[o.ID] = &cp
	return o.ID
}

// Order returns a copy of the stored order.
func (m *Memory) Order(id int64) (model.TrackedOrder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.TrackedOrder{}, false
	}
	return *o, true
}

// Events returns a copy of the audit trail in append order.
func (m *Memory) Events() []model.OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.OrderEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) BeginRun(ctx context.Context, mode, notes string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRunID++
	m.openRuns[m.nextRunID] = true
	return m.nextRunID, nil
}

func (m *Memory) EndRun(ctx context.Context, runID int64, summary model.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.openRuns, runID)
	m.summaries = append(m.summaries, summary)
	return nil
}

func (m *Memory) ImportSnapshots(ctx context.Context, snaps []model.MarketSnapshot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range snaps {
		m.nextSnapID++
		s.ID = m.nextSnapID
		m.snaps = append(m.snaps, s)
	}
	return len(snaps), nil
}

func (m *Memory) SnapshotsWithin(ctx context.Context, window time.Duration) ([]model.MarketSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if window <= 0 {
		out := make([]model.MarketSnapshot, len(m.snaps))
		copy(out, m.snaps)
		return out, nil
	}

	cutoff := m.now().Add(-window)
	var out []model.MarketSnapshot
	for _, s := range m.snaps {
		ts, ok := m.norm.ParseTime(s.CapturedAt)
		if !ok || ts.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) OpenOrders(ctx context.Context) ([]model.TrackedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []int64
	for id := range m.orders {
		ids = append(ids, id)
	}
	// map iteration order is random; orders come back by ID like Postgres
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []model.TrackedOrder
	for _, id := range ids {
		if o := m.orders[id]; o.Open() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *Memory) MarkSeen(ctx context.Context, orderID int64, at time.Time, ev model.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutates {
		return errMutateFailed
	}
	if o, ok := m.orders[orderID]; ok {
		t := at
		o.LastSeenAt = &t
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) ApplyFill(ctx context.Context, orderID int64, delta int64, status model.OrderStatus, at time.Time, ev model.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutates {
		return errMutateFailed
	}
	if o, ok := m.orders[orderID]; ok {
		o.QtyFilled += delta
		if o.QtyFilled > o.QtyRequested {
			o.QtyFilled = o.QtyRequested
		}
		o.Status = status
		if status.Terminal() {
			t := at
			o.ClosedAt = &t
		}
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) CloseOrder(ctx context.Context, orderID int64, status model.OrderStatus, at time.Time, ev model.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMutates {
		return errMutateFailed
	}
	if o, ok := m.orders[orderID]; ok && o.Open() {
		t := at
		o.Status = status
		o.ClosedAt = &t
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) AppendEvent(ctx context.Context, ev model.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}
