package temporal

import (
	"context"
	"errors"
	"fmt"
)

// ErrDuplicateCurrent is returned when two currently-valid rows share one
// natural key. That violates the at-most-one-current invariant and indicates
// target corruption, so the run aborts before any mutation rather than
// silently repairing it.
var ErrDuplicateCurrent = errors.New("duplicate currently-valid natural key in target")

type cacheEntry struct {
	digest string
	id     int64
}

// VersionCache maps every natural key currently valid in the target to the
// content digest and surrogate id of its open version. It is owned by
// exactly one reconciliation run: built fresh at run start, discarded at run
// end, never shared across runs.
type VersionCache struct {
	entries map[Key]cacheEntry
}

// BuildCache performs one bounded-memory scan of the target's currently
// valid slice and indexes it by natural key.
func BuildCache(ctx context.Context, sink Sink, cfg RunConfig) (*VersionCache, error) {
	cache := &VersionCache{entries: make(map[Key]cacheEntry)}

	err := sink.ScanCurrent(ctx, func(rec Record) error {
		key, err := MakeKey(rec.Row, cfg.NaturalKey)
		if err != nil {
			return fmt.Errorf("target row id=%d: %w", rec.ID, err)
		}
		if prev, ok := cache.entries[key]; ok {
			return fmt.Errorf("%w: key %s held by ids %d and %d",
				ErrDuplicateCurrent, key, prev.id, rec.ID)
		}
		cache.entries[key] = cacheEntry{digest: HashRow(rec.Row), id: rec.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// Len returns the number of currently-valid keys in the cache.
func (c *VersionCache) Len() int { return len(c.entries) }

func (c *VersionCache) lookup(key Key) (cacheEntry, bool) {
	e, ok := c.entries[key]
	return e, ok
}
