package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the parsing rules. It is passed in at construction so the
// rules live with the component instead of in package-level state.
type Config struct {
	// TimeLayouts are tried in order by ParseTime before the RFC 3339
	// fallback. Layouts with fractional seconds come first.
	TimeLayouts []string
}

// DefaultConfig returns the layouts the capture pipeline actually emits.
func DefaultConfig() Config {
	return Config{
		TimeLayouts: []string{
			"2006-01-02 15:04:05.999999",
			"2006-01-02 15:04:05",
		},
	}
}

// Normalizer converts raw OCR text into canonical values.
type Normalizer struct {
	cfg Config
}

// New creates a Normalizer. A zero-layout config falls back to the defaults.
func New(cfg Config) *Normalizer {
	if len(cfg.TimeLayouts) == 0 {
		cfg.TimeLayouts = DefaultConfig().TimeLayouts
	}
	return &Normalizer{cfg: cfg}
}

// ItemKey canonicalizes an item name for matching: trimmed and case-folded.
// Keys are for lookup only, never for display.
func (n *Normalizer) ItemKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseDecimal parses a price-like string that may use either comma-decimal
// ("1.234,56") or dot-decimal ("1,234.56") conventions. Internal spaces are
// stripped first. When both separators appear, the one that occurs last is
// the decimal point and the other is a thousands separator. With a single
// separator kind the input is ambiguous; the first interpretation that
// parses wins:
//
//  1. comma replaced by dot
//  2. dots removed, then comma replaced by dot
//
// Returns ok=false when nothing parses. Callers must skip the record, not
// substitute zero: a false zero price would match real orders.
func (n *Normalizer) ParseDecimal(s string) (decimal.Decimal, bool) {
	txt := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if txt == "" {
		return decimal.Decimal{}, false
	}

	lastDot := strings.LastIndex(txt, ".")
	lastComma := strings.LastIndex(txt, ",")

	var candidates []string
	switch {
	case lastDot >= 0 && lastComma > lastDot:
		candidates = []string{strings.ReplaceAll(strings.ReplaceAll(txt, ".", ""), ",", ".")}
	case lastComma >= 0 && lastDot > lastComma:
		candidates = []string{strings.ReplaceAll(txt, ",", "")}
	default:
		candidates = []string{
			strings.ReplaceAll(txt, ",", "."),
			strings.ReplaceAll(strings.ReplaceAll(txt, ".", ""), ",", "."),
		}
	}
	for _, c := range candidates {
		if d, err := decimal.NewFromString(c); err == nil {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

// ParseInt extracts an integer from noisy text: digit characters are kept,
// everything else is dropped, and a single leading minus sign is honored.
// Returns ok=false when no digits remain.
func (n *Normalizer) ParseInt(s string) (int64, bool) {
	var b strings.Builder
	neg := false
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && i == 0:
			neg = true
		}
	}
	if b.Len() == 0 {
		return 0, false
	}

	digits := b.String()
	if neg {
		digits = "-" + digits
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseTime parses a capture timestamp using the configured layouts, then
// RFC 3339 as a generic fallback. Times are interpreted as UTC.
func (n *Normalizer) ParseTime(s string) (time.Time, bool) {
	txt := strings.TrimSpace(s)
	if txt == "" {
		return time.Time{}, false
	}
	for _, layout := range n.cfg.TimeLayouts {
		if t, err := time.ParseInLocation(layout, txt, time.UTC); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, txt); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, txt); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
