package jobs

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/lucasmv/marketbot/internal/model"
	"github.com/lucasmv/marketbot/internal/reconcile"
)

// Job kinds recognized in the file.
const (
	KindReconcileOrders  = "reconcile_orders"
	KindCollectWatchlist = "collect_watchlist"
	KindCollectCategory  = "collect_category"
)

// File is the parsed job file.
type File struct {
	Jobs []Job `yaml:"jobs"`
}

// Job is one entry in the job file. Parameter fields are pointers so an
// absent key is distinguishable from an explicit zero.
type Job struct {
	Kind string `yaml:"kind" validate:"required"`

	// reconcile_orders parameters
	PriceMatchEpsilon        *float64 `yaml:"price_match_epsilon" validate:"omitempty,gt=0"`
	SnapshotWindowMinutes    *int     `yaml:"snapshot_window_minutes"`
	CloseMissingAfterMinutes *int     `yaml:"close_missing_after_minutes" validate:"omitempty,gt=0"`
	MissingCloseStatus       string   `yaml:"missing_close_status"`

	// Snapshots are inline rows imported before matching, for feeding the
	// reconciler observations that did not come through the OCR pipeline.
	Snapshots []SnapshotRow `yaml:"snapshots"`
}

// SnapshotRow is an inline snapshot in the job file. Values are raw text,
// same as OCR output; the reconciler's normalizer handles them.
type SnapshotRow struct {
	TS           string `yaml:"ts"`
	ItemName     string `yaml:"item_name"`
	Side         string `yaml:"side"`
	Price        string `yaml:"price"`
	QtyRemaining string `yaml:"qty_remaining"`
	Settlement   string `yaml:"settlement"`
}

// complete reports whether the row carries the required fields.
// Incomplete rows are skipped on import, mirroring ingestion's discard rule.
func (r SnapshotRow) complete() bool {
	return r.ItemName != "" && r.Side != "" && r.Price != ""
}

// toSnapshot converts the row for the store. Inline rows without a
// timestamp get the import time so windowed reads still see them.
func (r SnapshotRow) toSnapshot(now time.Time) model.MarketSnapshot {
	ts := r.TS
	if ts == "" {
		ts = now.UTC().Format(time.RFC3339)
	}
	return model.MarketSnapshot{
		CapturedAt:   ts,
		ItemName:     r.ItemName,
		Side:         r.Side,
		Price:        r.Price,
		QtyRemaining: r.QtyRemaining,
		Settlement:   r.Settlement,
		Confidence:   1, // operator-supplied, not OCR
	}
}

// LoadFile reads and validates a job file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse job yaml: %w", err)
	}

	v := validator.New()
	for i, job := range f.Jobs {
		if err := v.Struct(job); err != nil {
			return nil, fmt.Errorf("job %d (%s): %w", i, job.Kind, err)
		}
	}
	return &f, nil
}

// ReconcileParams builds run parameters from the job, falling back to the
// documented defaults for absent keys.
func (j Job) ReconcileParams() (reconcile.Params, error) {
	p := reconcile.DefaultParams()

	if j.PriceMatchEpsilon != nil {
		p.Epsilon = decimal.NewFromFloat(*j.PriceMatchEpsilon)
	}
	if j.SnapshotWindowMinutes != nil {
		p.Window = time.Duration(*j.SnapshotWindowMinutes) * time.Minute
	}
	if j.CloseMissingAfterMinutes != nil {
		d := time.Duration(*j.CloseMissingAfterMinutes) * time.Minute
		p.CloseMissingAfter = &d
	}
	if j.MissingCloseStatus != "" {
		p.MissingCloseStatus = model.OrderStatus(j.MissingCloseStatus)
	}

	if err := p.Validate(); err != nil {
		return reconcile.Params{}, err
	}
	return p, nil
}
