package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucasmv/marketbot/internal/model"
	"github.com/lucasmv/marketbot/internal/normalize"
)

// bucketKey identifies a candidate pool: normalized item key plus side.
type bucketKey struct {
	item string
	side string
}

// candidate is a snapshot that survived normalization.
type candidate struct {
	snap         model.MarketSnapshot
	price        decimal.Decimal
	qtyRemaining *int64 // nil when the snapshot carried no readable quantity
	capturedAt   time.Time // zero when the capture timestamp failed to parse
}

// buildBuckets groups snapshots into candidate pools keyed by (item, side),
// each pool sorted most-recent-first so the matcher's first hit is the
// freshest evidence. Snapshots with an unparseable price are dropped
// outright. Snapshots with an unparseable timestamp sort after everything
// that parsed (zero-time sentinel); remaining ties keep ingestion order via
// the stable sort.
func buildBuckets(snaps []model.MarketSnapshot, norm *normalize.Normalizer) map[bucketKey][]candidate {
	buckets := make(map[bucketKey][]candidate)

	for _, s := range snaps {
		price, ok := norm.ParseDecimal(s.Price)
		if !ok {
			continue
		}

		c := candidate{snap: s, price: price}
		if qty, ok := norm.ParseInt(s.QtyRemaining); ok {
			c.qtyRemaining = &qty
		}
		if ts, ok := norm.ParseTime(s.CapturedAt); ok {
			c.capturedAt = ts
		}

		key := bucketKey{
			item: norm.ItemKey(s.ItemName),
			side: strings.ToUpper(strings.TrimSpace(s.Side)),
		}
		buckets[key] = append(buckets[key], c)
	}

	for _, pool := range buckets {
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].capturedAt.After(pool[j].capturedAt)
		})
	}
	return buckets
}
