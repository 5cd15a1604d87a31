// Package jobs reads the declarative job file and drives reconciliation runs.
//
// The job file is a YAML list; each entry names a kind and its parameters.
// Only reconcile_orders is executed here; the collection kinds belong to
// the UI driver and are acknowledged and skipped. Unknown kinds are logged,
// never fatal, so a typo in one job does not take down the rest of the file.
//
// The scheduler runs the file once on demand, or watches its modification
// time and re-runs on every change.
package jobs
