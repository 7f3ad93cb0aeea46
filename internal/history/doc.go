// Package history persists one row per sync or publish run in a SQLite
// database under the state directory.
//
// The catalog digest of each sync run is kept so the next run can report
// whether the catalog changed. Rows are never pruned.
package history
