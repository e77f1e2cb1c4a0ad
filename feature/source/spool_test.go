package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"temporal-sync/core/storage/mocks"
	"temporal-sync/core/temporal"

	"github.com/minio/minio-go/v7"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cleanSpool(t *testing.T, cleaner Cleaner, fixture string) []byte {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", fixture))
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	require.NoError(t, cleaner.Clean(f, &out))
	return out.Bytes()
}

func TestFixedSpoolCleaner(t *testing.T) {
	cleaner := &FixedSpoolCleaner{Separator: '|', ReplaceWith: ' ', HeaderLines: 2}
	out := cleanSpool(t, cleaner, "fixed_spool.txt")

	g := goldie.New(t)
	g.Assert(t, "fixed_spool", out)
}

func TestFixedSpoolCleanerTruncatedPreamble(t *testing.T) {
	cleaner := &FixedSpoolCleaner{Separator: '|', ReplaceWith: ' ', HeaderLines: 5}
	err := cleaner.Clean(strings.NewReader("only one line\n"), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preamble")
}

func TestCM07Cleaner(t *testing.T) {
	out := cleanSpool(t, &CM07Cleaner{}, "cm07_spool.txt")

	g := goldie.New(t)
	g.Assert(t, "cm07_spool", out)
}

func TestNewCleanerUnknownKind(t *testing.T) {
	_, err := NewCleaner(CleanerKind("zpp"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zpp")
}

func TestSpoolSourceTypedRows(t *testing.T) {
	src := &SpoolSource{
		Path:        filepath.Join("testdata", "fixed_spool.txt"),
		Cleaner:     CleanerFixed,
		HeaderLines: 2,
		Columns: []temporal.Column{
			{Name: "Material", Kind: temporal.KindString},
			{Name: "Centro", Kind: temporal.KindString},
			{Name: "Estoque", Kind: temporal.KindInt},
		},
	}

	rows := collectRows(t, src)
	require.Len(t, rows, 3)

	assert.True(t, rows[0]["Material"].Equal(temporal.String("M-100")))
	assert.True(t, rows[0]["Estoque"].Equal(temporal.Int(5)))
	assert.True(t, rows[2]["Material"].Equal(temporal.String("M-300")))
	assert.True(t, rows[2]["Centro"].Equal(temporal.String("10 00")), "stray separator is blanked, not split")
	assert.True(t, rows[2]["Estoque"].Equal(temporal.Int(7)))
}

func TestFetchExtract(t *testing.T) {
	store := new(mocks.Client)
	store.On("BucketExists", mock.Anything, "extracts").Return(true, nil)
	store.On("GetObject", mock.Anything, "extracts", "mm.csv", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader("material\nM-100\n")), nil)

	path, cleanup, err := FetchExtract(context.Background(), store, "extracts", "mm.csv")
	require.NoError(t, err)
	defer cleanup()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "material\nM-100\n", string(content))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	store.AssertExpectations(t)
}

func TestFetchExtractMissingBucket(t *testing.T) {
	store := new(mocks.Client)
	store.On("BucketExists", mock.Anything, "extracts").Return(false, nil)

	_, _, err := FetchExtract(context.Background(), store, "extracts", "mm.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
