package normalize

import (
	"testing"
	"time"
)

func TestParseDecimal(t *testing.T) {
	n := New(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "comma decimal with dot thousands", input: "1.234,56", want: "1234.56", ok: true},
		{name: "dot decimal with comma thousands", input: "1,234.56", want: "1234.56", ok: true},
		{name: "comma decimal with repeated dot thousands", input: "1.234.567,89", want: "1234567.89", ok: true},
		{name: "dot decimal with repeated comma thousands", input: "1,234,567.89", want: "1234567.89", ok: true},
		{name: "plain integer", input: "1234", want: "1234", ok: true},
		{name: "simple dot decimal", input: "10.003", want: "10.003", ok: true},
		{name: "simple comma decimal", input: "10,003", want: "10.003", ok: true},
		{name: "internal spaces stripped", input: "1 234,56", want: "1234.56", ok: true},
		{name: "leading and trailing whitespace", input: "  42.5  ", want: "42.5", ok: true},
		{name: "negative", input: "-3,25", want: "-3.25", ok: true},
		{name: "not a number", input: "N/A", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "whitespace only", input: "   ", ok: false},
		{name: "letters mixed in", input: "12x34", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ParseDecimal(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDecimal(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	n := New(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  int64
		ok    bool
	}{
		{name: "plain", input: "100", want: 100, ok: true},
		{name: "noise characters dropped", input: "1,00o", want: 100, ok: true},
		{name: "qty with unit suffix", input: "40 uds", want: 40, ok: true},
		{name: "leading minus honored", input: "-15", want: -15, ok: true},
		{name: "interior minus ignored", input: "10-5", want: 105, ok: true},
		{name: "zero", input: "0", want: 0, ok: true},
		{name: "no digits", input: "abc", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "lone minus", input: "-", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ParseInt(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseInt(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("ParseInt(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	n := New(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "capture layout with microseconds",
			input: "2026-08-29 14:30:00.250000",
			want:  time.Date(2026, 8, 29, 14, 30, 0, 250000000, time.UTC),
			ok:    true,
		},
		{
			name:  "capture layout without fraction",
			input: "2026-08-29 14:30:00",
			want:  time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "rfc3339 fallback",
			input: "2026-08-29T14:30:00Z",
			want:  time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "rfc3339 with offset normalized to utc",
			input: "2026-08-29T16:30:00+02:00",
			want:  time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
			ok:    true,
		},
		{name: "garbage", input: "yesterday-ish", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ParseTime(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseTime(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTimeCustomLayouts(t *testing.T) {
	n := New(Config{TimeLayouts: []string{"02/01/2006 15:04"}})

	got, ok := n.ParseTime("29/08/2026 09:15")
	if !ok {
		t.Fatal("ParseTime with custom layout failed")
	}
	want := time.Date(2026, 8, 29, 9, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTime = %v, want %v", got, want)
	}
}

func TestItemKey(t *testing.T) {
	n := New(DefaultConfig())

	tests := []struct {
		input string
		want  string
	}{
		{"Widget", "widget"},
		{"  Steel Ingot  ", "steel ingot"},
		{"GOLD ORE", "gold ore"},
		{"widget", "widget"},
	}

	for _, tt := range tests {
		if got := n.ItemKey(tt.input); got != tt.want {
			t.Errorf("ItemKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
