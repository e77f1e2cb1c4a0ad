package cmd

import (
	"context"
	"fmt"
	"strings"

	"temporal-sync/core/config"
	"temporal-sync/core/database"
	"temporal-sync/core/logger"
	"temporal-sync/core/storage"
	syncfeature "temporal-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncTable       string
	syncColumns     []string
	syncNaturalKey  []string
	syncSource      string
	syncFormat      string
	syncComma       string
	syncSkipRows    int
	syncSpoolHeader int
	syncAsOf        string
	syncChunkSize   int
	syncKeepDeleted bool
	syncFromStorage bool
)

// syncCmd runs one reconciliation from the command line.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile one source extract against a versioned table",
	Long: `Reconcile a full source extract against a system-versioned table.

The extract must contain every currently valid row of the dataset: rows
missing from it are treated as deleted and their versions closed, unless
--keep-deleted is set.

Examples:
  # Sync a CSV extract into material_master
  sync --table material_master \
    --column material:string --column plant:string --column safety_stock:int \
    --natural-key material,plant --source /data/mm.csv

  # Sync a raw SAP spool, repairing its column structure first
  sync --table work_orders --format spool-fixed --spool-header-lines 2 \
    --column Material:string --column Centro:string --column Estoque:int \
    --natural-key Material,Centro --source /data/spool.txt

  # Pull the extract from object storage
  sync --table material_master --from-storage --source extracts/mm.csv \
    --column material:string --natural-key material`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncTable, "table", "", "Target table name (required)")
	syncCmd.Flags().StringArrayVar(&syncColumns, "column", nil, "Business column as name:kind; repeatable (required)")
	syncCmd.Flags().StringSliceVar(&syncNaturalKey, "natural-key", nil, "Columns identifying one logical entity (required)")
	syncCmd.Flags().StringVar(&syncSource, "source", "", "Extract file path, or object name with --from-storage (required)")
	syncCmd.Flags().StringVar(&syncFormat, "format", "csv", "Extract format: csv, spool-fixed or spool-cm07")
	syncCmd.Flags().StringVar(&syncComma, "comma", "", "Field separator for csv extracts (default ',')")
	syncCmd.Flags().IntVar(&syncSkipRows, "skip-rows", 0, "Raw lines to skip before the csv header")
	syncCmd.Flags().IntVar(&syncSpoolHeader, "spool-header-lines", 0, "Preamble lines of a fixed spool")
	syncCmd.Flags().StringVar(&syncAsOf, "as-of", "", "Historical boundary date (default today)")
	syncCmd.Flags().IntVar(&syncChunkSize, "chunk-size", 0, "Insert flush threshold (default 1000)")
	syncCmd.Flags().BoolVar(&syncKeepDeleted, "keep-deleted", false, "Do not close rows missing from the extract")
	syncCmd.Flags().BoolVar(&syncFromStorage, "from-storage", false, "Download the extract from the configured bucket")

	_ = syncCmd.MarkFlagRequired("table")
	_ = syncCmd.MarkFlagRequired("column")
	_ = syncCmd.MarkFlagRequired("natural-key")
	_ = syncCmd.MarkFlagRequired("source")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var store storage.Client
	if syncFromStorage {
		store, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
	}

	job, err := buildJob()
	if err != nil {
		return err
	}

	svc := syncfeature.NewService(db, store, cfg.Storage.Bucket, l)
	stats, err := svc.Run(ctx, job)
	if err != nil {
		return err
	}

	l.Info("sync complete",
		zap.String("table", job.Table),
		zap.Int("source_rows", stats.SourceRows),
		zap.Int("new", stats.New),
		zap.Int("modified", stats.Modified),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("deleted", stats.Deleted),
		zap.Int("closed", stats.Closed))
	return nil
}

// buildJob translates the flag values into a job definition.
func buildJob() (syncfeature.Job, error) {
	columns := make([]syncfeature.ColumnSpec, len(syncColumns))
	for i, raw := range syncColumns {
		name, kind, found := strings.Cut(raw, ":")
		if !found {
			return syncfeature.Job{}, fmt.Errorf("bad --column %q: expected name:kind", raw)
		}
		columns[i] = syncfeature.ColumnSpec{Name: name, Kind: kind}
	}

	closeDeleted := !syncKeepDeleted
	return syncfeature.Job{
		Table:      syncTable,
		Columns:    columns,
		NaturalKey: syncNaturalKey,
		Source: syncfeature.SourceSpec{
			Path:             syncSource,
			Format:           syncfeature.Format(syncFormat),
			Comma:            syncComma,
			SkipRows:         syncSkipRows,
			SpoolHeaderLines: syncSpoolHeader,
			FromStorage:      syncFromStorage,
		},
		AsOf:             syncAsOf,
		ChunkSize:        syncChunkSize,
		CloseDeletedRows: &closeDeleted,
	}, nil
}
