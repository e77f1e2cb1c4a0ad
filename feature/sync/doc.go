// Package sync ties a run together: it resolves a job into a source and a
// target table spec, ensures the table exists, and drives the reconciliation
// engine inside one database transaction. The HTTP handler and the CLI
// command are thin fronts over the same Service.
package sync
