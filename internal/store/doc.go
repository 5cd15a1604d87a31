// Package store persists snapshots, tracked orders and their audit trail.
//
// The contract the reconciler relies on:
//   - snapshots are append-only and read back in ingestion order
//   - every order mutation (mark-seen, fill, close) commits atomically with
//     its audit event, so a crash never leaves a mutation without its event
//   - closing an already-terminal order leaves quantity and status untouched
//     but still appends the event
//
// Postgres is the production implementation; Memory backs tests and dry runs.
package store
