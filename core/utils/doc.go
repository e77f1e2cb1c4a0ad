// Package utils contains conversion helpers for values scanned from
// database rows, where the concrete Go type depends on the driver.
package utils
