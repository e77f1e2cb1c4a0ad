package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"temporal-sync/core/temporal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExtract(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collectRows(t *testing.T, src temporal.Source) []temporal.Row {
	t.Helper()
	var rows []temporal.Row
	require.NoError(t, src.Each(context.Background(), func(row temporal.Row) error {
		rows = append(rows, row)
		return nil
	}))
	return rows
}

func TestCSVSourceTypedRows(t *testing.T) {
	path := writeExtract(t,
		"material,plant,safety_stock,price,created\n"+
			"M-100, 1000 ,25,9.5,2026-08-20\n"+
			"M-200,1000,,10,20.08.2026\n")

	src := &CSVSource{
		Path: path,
		Columns: []temporal.Column{
			{Name: "material", Kind: temporal.KindString},
			{Name: "plant", Kind: temporal.KindString},
			{Name: "safety_stock", Kind: temporal.KindInt},
			{Name: "price", Kind: temporal.KindFloat},
			{Name: "created", Kind: temporal.KindDate},
		},
	}

	rows := collectRows(t, src)
	require.Len(t, rows, 2)

	assert.True(t, rows[0]["material"].Equal(temporal.String("M-100")))
	assert.True(t, rows[0]["plant"].Equal(temporal.String("1000")), "padded cells are trimmed")
	assert.True(t, rows[0]["safety_stock"].Equal(temporal.Int(25)))
	assert.True(t, rows[0]["price"].Equal(temporal.Float(9.5)))
	assert.True(t, rows[0]["created"].Equal(temporal.Date(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))))

	assert.True(t, rows[1]["safety_stock"].IsNull(), "empty cell is null")
	assert.True(t, rows[1]["created"].Equal(rows[0]["created"]), "dotted dates parse to the same day")
}

func TestCSVSourceIgnoresUndeclaredColumns(t *testing.T) {
	path := writeExtract(t, "material,noise,plant\nM-100,xxx,1000\n")

	src := &CSVSource{
		Path: path,
		Columns: []temporal.Column{
			{Name: "material", Kind: temporal.KindString},
			{Name: "plant", Kind: temporal.KindString},
		},
	}

	rows := collectRows(t, src)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 2)
	assert.True(t, rows[0]["plant"].Equal(temporal.String("1000")))
}

func TestCSVSourceSkipRows(t *testing.T) {
	path := writeExtract(t, "report generated 2026-08-26\n\nmaterial\nM-100\n")

	src := &CSVSource{
		Path:     path,
		Columns:  []temporal.Column{{Name: "material", Kind: temporal.KindString}},
		SkipRows: 2,
	}

	rows := collectRows(t, src)
	require.Len(t, rows, 1)
}

func TestCSVSourceMissingDeclaredColumn(t *testing.T) {
	path := writeExtract(t, "material\nM-100\n")

	src := &CSVSource{
		Path:    path,
		Columns: []temporal.Column{{Name: "plant", Kind: temporal.KindString}},
	}

	err := src.Each(context.Background(), func(temporal.Row) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"plant"`)
}

func TestCSVSourceBadCell(t *testing.T) {
	path := writeExtract(t, "safety_stock\nnot-a-number\n")

	src := &CSVSource{
		Path:    path,
		Columns: []temporal.Column{{Name: "safety_stock", Kind: temporal.KindInt}},
	}

	err := src.Each(context.Background(), func(temporal.Row) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "safety_stock")
}

func TestCSVSourceContextCancel(t *testing.T) {
	path := writeExtract(t, "material\nM-100\nM-200\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &CSVSource{
		Path:    path,
		Columns: []temporal.Column{{Name: "material", Kind: temporal.KindString}},
	}
	err := src.Each(ctx, func(temporal.Row) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
