// Package source provides the row sources a sync run can consume: delimited
// extract files, raw SAP spool reports, and extract objects held in object
// storage.
//
// Spool reports are not directly parseable; a cleaning strategy first
// rewrites them into a regular pipe-separated file. Strategies form a closed
// registry keyed by name — the fixed-column repair and the CM07 capacity
// flattener — mirroring the upstream extraction jobs that produce them.
//
// All sources yield rows typed with the engine's closed value kinds, so a
// value extracted from a padded fixed-width report hashes identically to the
// same value stored in the target.
package source
