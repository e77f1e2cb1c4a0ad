package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"temporal-sync/core/storage"
	"temporal-sync/core/temporal"
	"temporal-sync/feature/source"
	"temporal-sync/feature/table"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrNoStorage is returned for jobs requesting a storage-held extract when no
// storage client is configured.
var ErrNoStorage = errors.New("extract storage is not configured")

// Service executes reconciliation jobs. Concurrent runs against the same
// table are collapsed into one; distinct tables run independently.
type Service struct {
	db     *gorm.DB
	client storage.Client
	bucket string
	logger *zap.Logger
	runs   singleflight.Group
}

// NewService creates a new sync service. client may be nil when no extract
// storage is configured; jobs with from_storage then fail.
func NewService(db *gorm.DB, client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{db: db, client: client, bucket: bucket, logger: logger}
}

// Run executes one job end to end: resolve the source, ensure the target
// table, and reconcile inside a single transaction. A second run for the same
// table arriving while one is in flight shares its result.
func (s *Service) Run(ctx context.Context, job Job) (temporal.Stats, error) {
	v, err, shared := s.runs.Do(job.Table, func() (any, error) {
		return s.run(ctx, job)
	})
	if shared {
		s.logger.Info("joined in-flight run", zap.String("table", job.Table))
	}
	if err != nil {
		return temporal.Stats{}, err
	}
	return v.(temporal.Stats), nil
}

func (s *Service) run(ctx context.Context, job Job) (temporal.Stats, error) {
	spec, err := job.tableSpec()
	if err != nil {
		return temporal.Stats{}, err
	}
	cfg, err := job.runConfig()
	if err != nil {
		return temporal.Stats{}, err
	}

	src, cleanup, err := s.buildSource(ctx, job, spec)
	if err != nil {
		return temporal.Stats{}, err
	}
	defer cleanup()

	if err := table.EnsureTable(s.db, spec); err != nil {
		return temporal.Stats{}, err
	}

	log := s.logger.With(zap.String("table", spec.Name))
	log.Info("starting sync run",
		zap.Time("as_of", cfg.AsOf),
		zap.Bool("close_deleted", cfg.CloseDeletedRows))

	var stats temporal.Stats
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sink := table.NewSink(tx, spec, cfg.SentinelValidTo)
		engine, err := temporal.NewEngine(sink, cfg, log)
		if err != nil {
			return err
		}
		stats, err = engine.Run(ctx, src)
		return err
	}, s.txOptions()...)
	if err != nil {
		return temporal.Stats{}, fmt.Errorf("sync of %s: %w", spec.Name, err)
	}
	return stats, nil
}

// buildSource resolves the job's extract into a row source, downloading it
// from object storage first when requested. The returned cleanup removes any
// temporary download.
func (s *Service) buildSource(ctx context.Context, job Job, spec table.Spec) (temporal.Source, func(), error) {
	path := job.Source.Path
	cleanup := func() {}

	if job.Source.FromStorage {
		if s.client == nil {
			return nil, nil, ErrNoStorage
		}
		local, remove, err := source.FetchExtract(ctx, s.client, s.bucket, path)
		if err != nil {
			return nil, nil, err
		}
		path, cleanup = local, remove
	}

	switch job.Source.Format {
	case FormatCSV, "":
		csv := &source.CSVSource{Path: path, Columns: spec.Columns, SkipRows: job.Source.SkipRows}
		if job.Source.Comma != "" {
			csv.Comma = []rune(job.Source.Comma)[0]
		}
		return csv, cleanup, nil
	case FormatSpoolFixed:
		return &source.SpoolSource{
			Path:        path,
			Cleaner:     source.CleanerFixed,
			HeaderLines: job.Source.SpoolHeaderLines,
			Columns:     spec.Columns,
		}, cleanup, nil
	case FormatSpoolCM07:
		return &source.SpoolSource{
			Path:    path,
			Cleaner: source.CleanerCM07,
			Columns: spec.Columns,
		}, cleanup, nil
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown source format %q", job.Source.Format)
	}
}

// txOptions picks the run isolation level per dialect. MySQL gets
// serializable so the current-slice scan and the sweep see one snapshot;
// SQLite transactions are serializable already.
func (s *Service) txOptions() []*sql.TxOptions {
	if s.db.Dialector.Name() == "mysql" {
		return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return nil
}
