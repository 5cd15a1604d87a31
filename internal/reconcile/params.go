package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucasmv/marketbot/internal/model"
)

// Default values for run parameters.
var (
	// DefaultEpsilon is the absolute price tolerance for a match.
	DefaultEpsilon = decimal.RequireFromString("0.005")

	// DefaultWindow is the snapshot lookback window.
	DefaultWindow = 120 * time.Minute
)

// Params configures one reconciliation run.
type Params struct {
	// Epsilon is the absolute price tolerance; a snapshot matches when
	// |snapshot price - order price| <= Epsilon. Must be positive.
	Epsilon decimal.Decimal

	// Window bounds how far back snapshots are read. Zero or negative
	// disables the time filter.
	Window time.Duration

	// CloseMissingAfter, when set, closes an order that has gone unmatched
	// for at least this long since it was last seen. Nil disables staleness
	// closure entirely.
	CloseMissingAfter *time.Duration

	// MissingCloseStatus overrides the terminal status used for staleness
	// closures. When empty, a stale order is closed FILLED only if it is
	// already fully filled; otherwise it is left open and flagged.
	MissingCloseStatus model.OrderStatus

	// Now supplies the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// DefaultParams returns the standard run parameters.
func DefaultParams() Params {
	return Params{
		Epsilon: DefaultEpsilon,
		Window:  DefaultWindow,
	}
}

// Validate rejects parameter combinations that would make the run
// meaningless. Called before any order is touched.
func (p Params) Validate() error {
	if !p.Epsilon.IsPositive() {
		return fmt.Errorf("price match epsilon must be positive, got %s", p.Epsilon)
	}
	if p.CloseMissingAfter != nil && *p.CloseMissingAfter <= 0 {
		return errors.New("close-missing threshold must be positive when set")
	}
	if p.MissingCloseStatus != "" && !p.MissingCloseStatus.Terminal() {
		return fmt.Errorf("missing-close status %q is not terminal", p.MissingCloseStatus)
	}
	return nil
}

func (p Params) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}
