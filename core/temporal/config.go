package temporal

import (
	"errors"
	"time"
)

// DefaultChunkSize is the pending-insert flush threshold used when a run
// does not configure its own.
const DefaultChunkSize = 1000

// DefaultSentinel is the open-ended valid_to date marking a currently valid
// version.
var DefaultSentinel = time.Date(2999, time.December, 31, 0, 0, 0, 0, time.UTC)

// RunConfig carries the parameters of one reconciliation run. Build it with
// NewRunConfig; the zero value is not valid.
type RunConfig struct {
	// NaturalKey is the ordered list of column names whose combined values
	// identify one logical entity across all of its history.
	NaturalKey []string

	// AsOf is the historical timestamp stamped on every insert and close
	// produced by the run, so all changes share one boundary.
	AsOf time.Time

	// ChunkSize is the pending-insert flush threshold.
	ChunkSize int

	// CloseDeletedRows enables the obsolescence sweep for keys present in
	// the target but absent from the source.
	CloseDeletedRows bool

	// SentinelValidTo is the far-future date meaning "currently valid".
	SentinelValidTo time.Time
}

// NewRunConfig returns a run configuration with defaults applied: chunk size
// 1000, deletion sweep enabled, sentinel 2999-12-31.
func NewRunConfig(naturalKey []string, asOf time.Time) RunConfig {
	return RunConfig{
		NaturalKey:       naturalKey,
		AsOf:             asOf,
		ChunkSize:        DefaultChunkSize,
		CloseDeletedRows: true,
		SentinelValidTo:  DefaultSentinel,
	}
}

// Validate checks the configuration is complete enough to run.
func (c RunConfig) Validate() error {
	if len(c.NaturalKey) == 0 {
		return errors.New("natural key is required")
	}
	for _, name := range c.NaturalKey {
		if IsSystemColumn(name) {
			return errors.New("natural key must not include system columns")
		}
	}
	if c.AsOf.IsZero() {
		return errors.New("as-of timestamp is required")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.SentinelValidTo.IsZero() {
		return errors.New("sentinel valid_to is required")
	}
	if !c.AsOf.Before(c.SentinelValidTo) {
		return errors.New("as-of must precede the sentinel valid_to")
	}
	return nil
}
