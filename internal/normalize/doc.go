// Package normalize turns OCR-derived text into usable numbers and timestamps.
//
// OCR output is noisy and locale-ambiguous: "1.234,56" and "1,234.56" both
// mean 1234.56 depending on which separator convention the game client uses.
// Every parser here returns an explicit ok flag instead of a sentinel value;
// a false ok always means "skip this record", never "treat as zero".
package normalize
