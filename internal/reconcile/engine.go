package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lucasmv/marketbot/internal/model"
	"github.com/lucasmv/marketbot/internal/normalize"
	"github.com/lucasmv/marketbot/internal/store"
)

// Engine runs reconciliation passes against a store.
type Engine struct {
	params Params
	store  store.Store
	norm   *normalize.Normalizer
	logger *slog.Logger
}

// New creates an Engine. Params are validated up front so a bad tolerance
// can never reach an order.
func New(params Params, st store.Store, norm *normalize.Normalizer, logger *slog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		params: params,
		store:  st,
		norm:   norm,
		logger: logger,
	}, nil
}

// Run executes one reconciliation pass: read the snapshot window, group
// candidates, walk every open order, apply lifecycle mutations. A data
// defect on a single order is recorded and skipped; a storage failure
// aborts the run so the audit trail never drifts from the order rows.
func (e *Engine) Run(ctx context.Context) (model.RunSummary, error) {
	var summary model.RunSummary
	start := time.Now()

	snaps, err := e.store.SnapshotsWithin(ctx, e.params.Window)
	if err != nil {
		return summary, fmt.Errorf("read snapshots: %w", err)
	}
	buckets := buildBuckets(snaps, e.norm)

	orders, err := e.store.OpenOrders(ctx)
	if err != nil {
		return summary, fmt.Errorf("read open orders: %w", err)
	}

	now := e.params.now()
	for _, order := range orders {
		if !order.Open() {
			continue
		}
		if err := e.processOrder(ctx, order, buckets, now, &summary); err != nil {
			return summary, err
		}
	}

	e.logger.Info("reconcile run complete",
		"snapshots", len(snaps),
		"orders", len(orders),
		"matched", summary.Matched,
		"filled", summary.Filled,
		"closed_missing", summary.ClosedMissing,
		"duration", time.Since(start),
	)
	return summary, nil
}

func (e *Engine) processOrder(ctx context.Context, order model.TrackedOrder, buckets map[bucketKey][]candidate, now time.Time, summary *model.RunSummary) error {
	price, ok := e.norm.ParseDecimal(order.Price)
	if !ok {
		// Data defect on the order itself, not a market condition.
		e.logger.Warn("order has unparseable price",
			"order_id", order.ID,
			"price", order.Price,
		)
		ev := model.NewOrderEvent(order.ID, model.EventError, order.Status, now)
		ev.Detail = map[string]any{"reason": "unparseable_price", "price": order.Price}
		if err := e.store.AppendEvent(ctx, ev); err != nil {
			return fmt.Errorf("append error event: %w", err)
		}
		return nil
	}

	key := bucketKey{
		item: e.norm.ItemKey(order.ItemName),
		side: strings.ToUpper(strings.TrimSpace(order.Side)),
	}
	match := firstMatch(price, buckets[key], e.params.Epsilon)
	if match == nil {
		return e.handleMissing(ctx, order, now, summary)
	}
	return e.applyMatch(ctx, order, match, now, summary)
}

// applyMatch marks the order seen and applies any implied fill.
func (e *Engine) applyMatch(ctx context.Context, order model.TrackedOrder, match *candidate, now time.Time, summary *model.RunSummary) error {
	summary.Matched++

	seen := model.NewOrderEvent(order.ID, model.EventSeen, order.Status, now)
	seen.Detail = map[string]any{"snapshot_id": match.snap.ID}
	if err := e.store.MarkSeen(ctx, order.ID, now, seen); err != nil {
		return fmt.Errorf("mark order %d seen: %w", order.ID, err)
	}

	filled := order.QtyFilled
	if match.qtyRemaining != nil {
		remaining := *match.qtyRemaining
		if remaining < 0 {
			remaining = 0
		}

		implied := order.QtyRequested - remaining
		if implied < 0 {
			implied = 0
		}
		if implied > order.QtyRequested {
			implied = order.QtyRequested
		}

		// Fills are monotonic: a remaining-quantity increase (OCR noise,
		// a larger re-post) never reduces the recorded fill.
		delta := implied - filled
		if delta > 0 {
			filled += delta

			status := model.StatusPartial
			if order.QtyRequested > 0 && filled >= order.QtyRequested {
				status = model.StatusFilled
			}

			fill := model.NewOrderEvent(order.ID, model.EventFill, status, now)
			fill.QtyDelta = delta
			fill.Detail = map[string]any{
				"snapshot_id":   match.snap.ID,
				"qty_remaining": remaining,
			}
			if err := e.store.ApplyFill(ctx, order.ID, delta, status, now, fill); err != nil {
				return fmt.Errorf("apply fill to order %d: %w", order.ID, err)
			}

			if status == model.StatusFilled {
				summary.Filled++
				closeEv := model.NewOrderEvent(order.ID, model.EventClose, status, now)
				closeEv.Detail = map[string]any{"reason": "filled"}
				if err := e.store.AppendEvent(ctx, closeEv); err != nil {
					return fmt.Errorf("append close event: %w", err)
				}
			}

			e.logger.Debug("order matched",
				"order_id", order.ID,
				"snapshot_id", match.snap.ID,
				"qty_delta", delta,
				"qty_filled", filled,
				"status", status,
			)
			return nil
		}
	}

	e.logger.Debug("order matched",
		"order_id", order.ID,
		"snapshot_id", match.snap.ID,
		"qty_delta", 0,
	)
	return nil
}

// handleMissing records the no-match diagnostic and, when configured,
// applies the staleness closure.
func (e *Engine) handleMissing(ctx context.Context, order model.TrackedOrder, now time.Time, summary *model.RunSummary) error {
	stale := e.params.CloseMissingAfter != nil &&
		order.LastSeenAt != nil &&
		now.Sub(*order.LastSeenAt) >= *e.params.CloseMissingAfter

	finalStatus := model.OrderStatus("")
	if stale {
		finalStatus = e.params.MissingCloseStatus
		if finalStatus == "" && order.QtyRequested > 0 && order.QtyFilled >= order.QtyRequested {
			finalStatus = model.StatusFilled
		}
	}

	missing := model.NewOrderEvent(order.ID, model.EventMissing, order.Status, now)
	missing.Detail = map[string]any{"status": string(order.Status)}
	if stale && finalStatus == "" {
		// Conservative by design: no closure status can be inferred, so the
		// order stays open and the staleness is surfaced for manual review.
		missing.Detail["reason"] = "not_seen_recently"
		missing.Detail["unresolved"] = true
	}
	if err := e.store.AppendEvent(ctx, missing); err != nil {
		return fmt.Errorf("append missing event: %w", err)
	}

	if !stale || finalStatus == "" {
		return nil
	}

	closeEv := model.NewOrderEvent(order.ID, model.EventClose, finalStatus, now)
	closeEv.Detail = map[string]any{
		"reason": "not_seen_recently",
	}
	if order.LastSeenAt != nil {
		closeEv.Detail["last_seen_at"] = order.LastSeenAt.Format(time.RFC3339)
	}
	if err := e.store.CloseOrder(ctx, order.ID, finalStatus, now, closeEv); err != nil {
		return fmt.Errorf("close stale order %d: %w", order.ID, err)
	}
	summary.ClosedMissing++

	e.logger.Info("order closed as stale",
		"order_id", order.ID,
		"status", finalStatus,
	)
	return nil
}
