package sync

import (
	"fmt"
	"time"

	"temporal-sync/core/temporal"
	"temporal-sync/feature/table"
)

// Format names the shape of a source extract file.
type Format string

const (
	// FormatCSV is a regular delimited extract with a header line.
	FormatCSV Format = "csv"
	// FormatSpoolFixed is a raw fixed-column SAP spool.
	FormatSpoolFixed Format = "spool-fixed"
	// FormatSpoolCM07 is a raw CM07 capacity spool.
	FormatSpoolCM07 Format = "spool-cm07"
)

// ColumnSpec declares one business column of the job's target table.
type ColumnSpec struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// SourceSpec locates and describes the extract to reconcile.
type SourceSpec struct {
	// Path is a local file path, or an object name when FromStorage is set.
	Path string `json:"path"`
	// Format selects the parser. Empty means csv.
	Format Format `json:"format"`
	// Comma overrides the field separator for csv extracts.
	Comma string `json:"comma"`
	// SkipRows is the number of raw lines before the csv header.
	SkipRows int `json:"skip_rows"`
	// SpoolHeaderLines is the preamble length of a fixed spool.
	SpoolHeaderLines int `json:"spool_header_lines"`
	// FromStorage downloads the extract from the configured bucket first.
	FromStorage bool `json:"from_storage"`
}

// Job is one reconciliation request: which table to sync, its shape, and
// where the source extract lives.
type Job struct {
	Table      string       `json:"table"`
	Columns    []ColumnSpec `json:"columns"`
	NaturalKey []string     `json:"natural_key"`
	Source     SourceSpec   `json:"source"`

	// AsOf is the historical boundary date, "2006-01-02" or RFC 3339.
	// Empty means today.
	AsOf string `json:"as_of"`
	// ChunkSize overrides the insert flush threshold. Zero keeps the default.
	ChunkSize int `json:"chunk_size"`
	// CloseDeletedRows disables the deletion sweep when set to false.
	// Absent means enabled.
	CloseDeletedRows *bool `json:"close_deleted_rows"`
}

// tableSpec resolves the declared columns into a validated table spec.
func (j Job) tableSpec() (table.Spec, error) {
	columns := make([]temporal.Column, len(j.Columns))
	for i, col := range j.Columns {
		kind, err := temporal.ParseKind(col.Kind)
		if err != nil {
			return table.Spec{}, fmt.Errorf("column %s: %w", col.Name, err)
		}
		columns[i] = temporal.Column{Name: col.Name, Kind: kind}
	}

	spec := table.Spec{Name: j.Table, Columns: columns, NaturalKey: j.NaturalKey}
	if err := spec.Validate(); err != nil {
		return table.Spec{}, err
	}
	return spec, nil
}

// runConfig resolves the job's run parameters with defaults applied.
func (j Job) runConfig() (temporal.RunConfig, error) {
	asOf, err := j.asOf()
	if err != nil {
		return temporal.RunConfig{}, err
	}

	cfg := temporal.NewRunConfig(j.NaturalKey, asOf)
	if j.ChunkSize > 0 {
		cfg.ChunkSize = j.ChunkSize
	}
	if j.CloseDeletedRows != nil {
		cfg.CloseDeletedRows = *j.CloseDeletedRows
	}
	return cfg, nil
}

func (j Job) asOf() (time.Time, error) {
	if j.AsOf == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse(temporal.DateLayout, j.AsOf); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, j.AsOf); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad as_of date %q", j.AsOf)
}
