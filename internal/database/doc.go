// Package database provides connection pool management for PostgreSQL.
//
// One database holds everything the reconciler touches: tracked orders,
// the append-only snapshot history, the order audit trail and run rows.
package database
