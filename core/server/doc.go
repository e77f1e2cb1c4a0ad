// Package server holds configuration for the optional HTTP surface that
// exposes sync runs over an API. The server itself is assembled in cmd/start.
package server
