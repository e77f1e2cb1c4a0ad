// Package storage wraps the MinIO client for fetching source extracts.
//
// Periodic extract files (CSV exports, SAP spools) are often dropped into an
// S3-compatible bucket by the upstream extraction jobs. This package exposes
// the minimal client surface the sync tool needs to pull them down, plus a
// testify mock under mocks/.
package storage
