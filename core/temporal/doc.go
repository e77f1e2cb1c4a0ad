// Package temporal implements the synchronization engine for system-versioned
// tables following the Slowly-Changing-Dimension Type-2 pattern.
//
// A versioned table keeps every insert, update and logical delete as its own
// row: the business payload plus a surrogate id and a valid_from/valid_to
// date pair. At most one row per natural key is "current", marked by a fixed
// far-future valid_to sentinel. The engine ingests a full extract of current
// truth and reconciles it non-destructively against that history.
//
// # Phases
//
// One run executes in strict sequence:
//
//  1. Cache build: one bounded-memory scan of the currently-valid slice,
//     indexed by natural key as (content digest, surrogate id).
//  2. Reconcile: every source row is hashed and classified as New, Modified
//     or Unchanged; pending inserts are flushed in chunks.
//  3. Sweep: after the source is fully drained, superseded versions and
//     (optionally) versions for keys missing from the source are closed with
//     the run's as-of date.
//
// The engine performs no retries and owns no transaction: the caller wraps a
// run in one ambient transaction so that a mid-run failure leaves the target
// unchanged, and so no concurrent writer can slip a competing current
// version between cache build and sweep. One run at a time per target.
//
// # Collaborators
//
// Rows are consumed from a Source and written through a Sink; both are small
// interfaces implemented outside this package (see feature/table for the
// gorm-backed sink and feature/source for file-based sources).
package temporal
