package temporal

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Stats summarizes the effects of one reconciliation run.
type Stats struct {
	// SourceRows is the number of rows read from the source.
	SourceRows int `json:"source_rows"`
	// New counts keys absent from the target that got their first version.
	New int `json:"new"`
	// Modified counts keys whose payload changed and got a new version.
	Modified int `json:"modified"`
	// Unchanged counts keys whose payload matched the current version.
	Unchanged int `json:"unchanged"`
	// Deleted counts keys present in the target but absent from the source.
	Deleted int `json:"deleted"`
	// Closed is the total number of versions closed (modified plus deleted).
	Closed int `json:"closed"`
}

// Engine reconciles one full source extract against a versioned target.
//
// A run executes three phases in strict sequence: the version cache is built
// from the target's currently-valid slice, every source row is classified
// against it, and a single obsolescence sweep closes superseded and unseen
// versions. The sweep can only run after the source is fully drained; a
// partial scan cannot know which keys are missing.
type Engine struct {
	sink Sink
	cfg  RunConfig
	log  *zap.Logger
}

// NewEngine validates the configuration and returns a ready engine.
// A nil logger disables logging.
func NewEngine(sink Sink, cfg RunConfig, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{sink: sink, cfg: cfg, log: log}, nil
}

// runState is the mutable state of one run. It is created at run start and
// discarded at run end; it is never reused across runs because the as-of
// value and seen-set are single-run artifacts.
type runState struct {
	seen     map[Key]struct{}
	pending  []Row
	closeIDs []int64
	stats    Stats
}

// Run executes one full reconciliation. On error the target may hold a
// partial set of inserts; the caller's ambient transaction is expected to
// roll them back.
func (e *Engine) Run(ctx context.Context, source Source) (Stats, error) {
	cache, err := BuildCache(ctx, e.sink, e.cfg)
	if err != nil {
		return Stats{}, fmt.Errorf("building version cache: %w", err)
	}
	e.log.Debug("version cache loaded", zap.Int("current_keys", cache.Len()))

	run := &runState{seen: make(map[Key]struct{})}

	if err := source.Each(ctx, func(row Row) error {
		return e.classify(ctx, cache, run, row)
	}); err != nil {
		return run.stats, err
	}

	if err := e.flush(ctx, run); err != nil {
		return run.stats, err
	}

	if err := e.sweep(ctx, cache, run); err != nil {
		return run.stats, err
	}

	e.log.Info("reconciliation finished",
		zap.Int("source_rows", run.stats.SourceRows),
		zap.Int("new", run.stats.New),
		zap.Int("modified", run.stats.Modified),
		zap.Int("unchanged", run.stats.Unchanged),
		zap.Int("deleted", run.stats.Deleted),
		zap.Int("closed", run.stats.Closed))
	return run.stats, nil
}

// classify routes one source row: New rows and Modified rows are stamped
// with the run's as-of boundary and queued for insert; Unchanged rows are
// dropped. Two source rows sharing one natural key are undefined upstream
// input; rows are processed in arrival order, so the later row wins.
func (e *Engine) classify(ctx context.Context, cache *VersionCache, run *runState, row Row) error {
	run.stats.SourceRows++

	key, err := MakeKey(row, e.cfg.NaturalKey)
	if err != nil {
		return fmt.Errorf("source row %d: %w", run.stats.SourceRows, err)
	}

	entry, exists := cache.lookup(key)
	if !exists {
		run.stats.New++
		run.pending = append(run.pending, e.stamp(row))
		return e.maybeFlush(ctx, run)
	}

	run.seen[key] = struct{}{}
	if HashRow(row) == entry.digest {
		run.stats.Unchanged++
		return nil
	}

	run.stats.Modified++
	run.pending = append(run.pending, e.stamp(row))
	run.closeIDs = append(run.closeIDs, entry.id)
	return e.maybeFlush(ctx, run)
}

// stamp copies the row and sets the run's historical boundary on it.
func (e *Engine) stamp(row Row) Row {
	out := row.Clone()
	out[ColumnValidFrom] = Date(e.cfg.AsOf)
	out[ColumnValidTo] = Date(e.cfg.SentinelValidTo)
	return out
}

func (e *Engine) maybeFlush(ctx context.Context, run *runState) error {
	if len(run.pending) < e.cfg.ChunkSize {
		return nil
	}
	return e.flush(ctx, run)
}

// flush writes the pending inserts as one batch. Chunking bounds peak memory
// regardless of source size and lets the sink batch round-trip cost.
func (e *Engine) flush(ctx context.Context, run *runState) error {
	if len(run.pending) == 0 {
		return nil
	}
	e.log.Debug("writing version rows", zap.Int("rows", len(run.pending)))
	if err := e.sink.InsertBatch(ctx, run.pending); err != nil {
		return fmt.Errorf("inserting %d rows: %w", len(run.pending), err)
	}
	run.pending = nil
	return nil
}

// sweep runs exactly once after the source is exhausted. It closes the
// superseded version of every Modified key and, when the deletion sweep is
// enabled, the current version of every key never observed in the source.
func (e *Engine) sweep(ctx context.Context, cache *VersionCache, run *runState) error {
	if e.cfg.CloseDeletedRows {
		for key, entry := range cache.entries {
			if _, ok := run.seen[key]; !ok {
				run.closeIDs = append(run.closeIDs, entry.id)
				run.stats.Deleted++
			}
		}
		e.log.Debug("rows set as obsolete", zap.Int("deleted", run.stats.Deleted))
	}

	// A natural key repeated in the source queues its cached id once per
	// Modified occurrence; each id is closed exactly once.
	queued := make(map[int64]struct{}, len(run.closeIDs))
	ids := make([]int64, 0, len(run.closeIDs))
	for _, id := range run.closeIDs {
		if _, ok := queued[id]; ok {
			continue
		}
		queued[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil
	}
	// Close at the same day boundary stamp puts on valid_from, so an as-of
	// carrying a time component cannot leave the old version open past its
	// successor's start.
	if err := e.sink.CloseBatch(ctx, ids, Date(e.cfg.AsOf).Time()); err != nil {
		return fmt.Errorf("closing %d rows: %w", len(ids), err)
	}
	run.stats.Closed = len(ids)
	return nil
}
