// Package model defines shared data types for the marketbot reconciliation core.
//
// Conventions:
//   - OCR-derived fields (price, quantity, capture timestamp) are carried as the
//     raw text read from the screen; parsing is the normalizer's job
//   - Parsed timestamps are time.Time in UTC
//   - IDs: int64 for store rows, uuid.UUID for audit events
package model
