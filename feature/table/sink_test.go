package table

import (
	"context"
	"fmt"
	"testing"
	"time"

	"temporal-sync/core/temporal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var asOf = time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite DB for sink tests.
func setupTestDB(t *testing.T, dbName string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	return db
}

func materialSpec() Spec {
	return Spec{
		Name: "material_master",
		Columns: []temporal.Column{
			{Name: "material", Kind: temporal.KindString},
			{Name: "plant", Kind: temporal.KindString},
			{Name: "safety_stock", Kind: temporal.KindInt},
			{Name: "price", Kind: temporal.KindFloat},
		},
		NaturalKey: []string{"material", "plant"},
	}
}

func materialRow(material string, stock int64) temporal.Row {
	return temporal.Row{
		"material":     temporal.String(material),
		"plant":        temporal.String("1000"),
		"safety_stock": temporal.Int(stock),
		"price":        temporal.Float(9.5),
	}
}

func stamped(row temporal.Row, validTo time.Time) temporal.Row {
	out := row.Clone()
	out[temporal.ColumnValidFrom] = temporal.Date(asOf)
	out[temporal.ColumnValidTo] = temporal.Date(validTo)
	return out
}

func TestEnsureTable(t *testing.T) {
	db := setupTestDB(t, "ensure")
	spec := materialSpec()

	require.NoError(t, EnsureTable(db, spec))
	assert.True(t, db.Migrator().HasTable("material_master"))

	// Idempotent on an existing versioned table.
	require.NoError(t, EnsureTable(db, spec))
}

func TestEnsureTableRejectsUnversionedTable(t *testing.T) {
	db := setupTestDB(t, "unversioned")
	require.NoError(t, db.Exec(`CREATE TABLE plain (id INTEGER PRIMARY KEY, material TEXT, plant TEXT)`).Error)

	spec := materialSpec()
	spec.Name = "plain"
	err := EnsureTable(db, spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system columns")
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"bad table name", func(s *Spec) { s.Name = "drop table; --" }},
		{"no columns", func(s *Spec) { s.Columns = nil }},
		{"system column collision", func(s *Spec) {
			s.Columns = append(s.Columns, temporal.Column{Name: "valid_to", Kind: temporal.KindDate})
		}},
		{"duplicate column", func(s *Spec) { s.Columns = append(s.Columns, s.Columns[0]) }},
		{"no natural key", func(s *Spec) { s.NaturalKey = nil }},
		{"undeclared key column", func(s *Spec) { s.NaturalKey = []string{"warehouse"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := materialSpec()
			tt.mutate(&spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestSinkRoundTrip(t *testing.T) {
	db := setupTestDB(t, "roundtrip")
	spec := materialSpec()
	require.NoError(t, EnsureTable(db, spec))

	sink := NewSink(db, spec, temporal.DefaultSentinel)
	ctx := context.Background()

	require.NoError(t, sink.InsertBatch(ctx, []temporal.Row{
		stamped(materialRow("M-100", 5), temporal.DefaultSentinel),
		stamped(materialRow("M-200", 8), temporal.DefaultSentinel),
	}))

	var records []temporal.Record
	require.NoError(t, sink.ScanCurrent(ctx, func(rec temporal.Record) error {
		records = append(records, rec)
		return nil
	}))
	require.Len(t, records, 2)

	// Scanned rows decode back into the declared kinds with canonical
	// content, so their digests match freshly built source rows.
	byKey := map[string]temporal.Row{}
	for _, rec := range records {
		assert.Positive(t, rec.ID)
		material, _ := rec.Row["material"]
		byKey[material.String()] = rec.Row
	}
	assert.Equal(t, temporal.HashRow(materialRow("M-100", 5)), temporal.HashRow(byKey["M-100"]))
	assert.Equal(t, temporal.HashRow(materialRow("M-200", 8)), temporal.HashRow(byKey["M-200"]))
}

func TestSinkScanSkipsClosedVersions(t *testing.T) {
	db := setupTestDB(t, "closed")
	spec := materialSpec()
	require.NoError(t, EnsureTable(db, spec))

	sink := NewSink(db, spec, temporal.DefaultSentinel)
	ctx := context.Background()

	require.NoError(t, sink.InsertBatch(ctx, []temporal.Row{
		stamped(materialRow("M-100", 5), temporal.DefaultSentinel),
	}))

	var ids []int64
	require.NoError(t, sink.ScanCurrent(ctx, func(rec temporal.Record) error {
		ids = append(ids, rec.ID)
		return nil
	}))
	require.Len(t, ids, 1)

	require.NoError(t, sink.CloseBatch(ctx, ids, asOf))

	count := 0
	require.NoError(t, sink.ScanCurrent(ctx, func(temporal.Record) error {
		count++
		return nil
	}))
	assert.Zero(t, count, "closed versions must leave the current slice")
}

func TestSinkCloseBatchCountMismatch(t *testing.T) {
	db := setupTestDB(t, "mismatch")
	spec := materialSpec()
	require.NoError(t, EnsureTable(db, spec))

	sink := NewSink(db, spec, temporal.DefaultSentinel)
	err := sink.CloseBatch(context.Background(), []int64{12345}, asOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 rows")
}

func TestSinkRejectsUndeclaredColumn(t *testing.T) {
	db := setupTestDB(t, "undeclared")
	spec := materialSpec()
	require.NoError(t, EnsureTable(db, spec))

	sink := NewSink(db, spec, temporal.DefaultSentinel)
	row := stamped(materialRow("M-100", 5), temporal.DefaultSentinel)
	row["warehouse"] = temporal.String("W1")

	err := sink.InsertBatch(context.Background(), []temporal.Row{row})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared column")
}

// TestEngineClosesRepeatedKeyOnce feeds an extract that repeats a modified
// key. The sink's affected-rows check counts each closed id once, so the run
// must not queue the superseded version twice.
func TestEngineClosesRepeatedKeyOnce(t *testing.T) {
	db := setupTestDB(t, "repeated_key")
	spec := materialSpec()
	require.NoError(t, EnsureTable(db, spec))

	ctx := context.Background()
	cfg := temporal.NewRunConfig(spec.NaturalKey, asOf)
	sink := NewSink(db, spec, cfg.SentinelValidTo)

	eng, err := temporal.NewEngine(sink, cfg, nil)
	require.NoError(t, err)
	_, err = eng.Run(ctx, temporal.Rows([]temporal.Row{materialRow("M-100", 5)}))
	require.NoError(t, err)

	next := cfg
	next.AsOf = asOf.AddDate(0, 0, 1)
	eng, err = temporal.NewEngine(sink, next, nil)
	require.NoError(t, err)
	stats, err := eng.Run(ctx, temporal.Rows([]temporal.Row{
		materialRow("M-100", 6),
		materialRow("M-100", 7),
	}))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Modified)
	assert.Equal(t, 1, stats.Closed)

	var closed int64
	require.NoError(t, db.Table(spec.Name).
		Where("`valid_to` = ?", next.AsOf).Count(&closed).Error)
	assert.EqualValues(t, 1, closed, "the superseded version is closed exactly once")
}

// TestEngineAgainstSQLite drives the full engine through the real sink and
// verifies the at-most-one-current invariant on disk.
func TestEngineAgainstSQLite(t *testing.T) {
	db := setupTestDB(t, "engine")
	spec := materialSpec()
	require.NoError(t, EnsureTable(db, spec))

	ctx := context.Background()
	cfg := temporal.NewRunConfig(spec.NaturalKey, asOf)
	sink := NewSink(db, spec, cfg.SentinelValidTo)

	// Day one: two new materials.
	eng, err := temporal.NewEngine(sink, cfg, nil)
	require.NoError(t, err)
	stats, err := eng.Run(ctx, temporal.Rows([]temporal.Row{
		materialRow("M-100", 5),
		materialRow("M-200", 8),
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.New)

	// Day two: M-100 changes, M-200 disappears, M-300 appears.
	dayTwo := cfg
	dayTwo.AsOf = asOf.AddDate(0, 0, 1)
	eng, err = temporal.NewEngine(sink, dayTwo, nil)
	require.NoError(t, err)
	stats, err = eng.Run(ctx, temporal.Rows([]temporal.Row{
		materialRow("M-100", 7),
		materialRow("M-300", 1),
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 1, stats.Modified)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 2, stats.Closed)

	var total int64
	require.NoError(t, db.Table(spec.Name).Count(&total).Error)
	assert.EqualValues(t, 4, total, "history is never destroyed")

	// At most one current version per natural key.
	type keyCount struct {
		Material string
		Plant    string
		N        int64
	}
	var counts []keyCount
	require.NoError(t, db.Table(spec.Name).
		Select("material, plant, COUNT(*) AS n").
		Where("`valid_to` = ?", cfg.SentinelValidTo).
		Group("material, plant").
		Scan(&counts).Error)
	require.Len(t, counts, 2, "M-100 and M-300 are current, M-200 is closed")
	for _, kc := range counts {
		assert.EqualValues(t, 1, kc.N, "key %s/%s", kc.Material, kc.Plant)
	}

	// Day three replays day two's extract: nothing moves.
	dayThree := cfg
	dayThree.AsOf = asOf.AddDate(0, 0, 2)
	eng, err = temporal.NewEngine(sink, dayThree, nil)
	require.NoError(t, err)
	stats, err = eng.Run(ctx, temporal.Rows([]temporal.Row{
		materialRow("M-100", 7),
		materialRow("M-300", 1),
	}))
	require.NoError(t, err)
	assert.Equal(t, temporal.Stats{SourceRows: 2, Unchanged: 2}, stats)
}
