// Package reconcile matches locally tracked orders against OCR-derived
// market snapshots and drives the order lifecycle.
//
// One run is a single sequential pass: read the snapshot window and the
// open orders up front, group snapshots by (item key, side), then for each
// order take the most recent snapshot whose price is within epsilon. A match
// marks the order seen and may imply a fill; no match emits a diagnostic and
// may trigger a staleness closure.
//
// Matching is first-fit by recency, not best-fit by price: once a snapshot
// is within tolerance, a fresher read beats a closer one. Fills are
// monotonic; a remaining-quantity increase never reduces the recorded fill.
package reconcile
