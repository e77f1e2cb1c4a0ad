// Package table implements the versioned-table side of a sync run on top of
// GORM.
//
// A Spec declares the target table: its business columns (typed with the
// engine's closed value kinds) and the natural key. EnsureTable creates the
// table with the surrogate id and valid_from/valid_to system columns plus
// the indexes the engine's access paths need, or verifies an existing table
// is actually versioned. Sink implements temporal.Sink with a cursor-based
// current-slice scan, multi-row inserts and an IN-clause close update; it
// runs inside whatever transaction the caller passes in.
package table
