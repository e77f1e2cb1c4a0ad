package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"temporal-sync/core/temporal"
)

// CSVSource reads a delimited extract file as typed rows. The first
// non-skipped line is the header; declared columns are matched against it by
// name, undeclared header columns are ignored.
type CSVSource struct {
	// Path is the extract file location.
	Path string
	// Columns declares the columns to read and their kinds.
	Columns []temporal.Column
	// Comma is the field separator. Zero means ','.
	Comma rune
	// SkipRows is the number of raw lines discarded before the header.
	SkipRows int
}

// Each streams every data row through fn, front to back, in one pass.
func (s *CSVSource) Each(ctx context.Context, fn func(temporal.Row) error) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("opening extract %s: %w", s.Path, err)
	}
	defer f.Close()
	return s.each(ctx, f, fn)
}

func (s *CSVSource) each(ctx context.Context, r io.Reader, fn func(temporal.Row) error) error {
	buffered := bufio.NewReader(r)
	for i := 0; i < s.SkipRows; i++ {
		if _, err := buffered.ReadString('\n'); err != nil {
			return fmt.Errorf("skipping %d header lines of %s: %w", s.SkipRows, s.Path, err)
		}
	}

	reader := csv.NewReader(buffered)
	if s.Comma != 0 {
		reader.Comma = s.Comma
	}

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading header of %s: %w", s.Path, err)
	}

	// Header names are trimmed: fixed-width exports pad them with spaces.
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	fields := make([]int, len(s.Columns))
	for i, col := range s.Columns {
		pos, ok := index[col.Name]
		if !ok {
			return fmt.Errorf("extract %s: declared column %q not in header", s.Path, col.Name)
		}
		fields[i] = pos
	}

	line := 1 + s.SkipRows
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("extract %s line %d: %w", s.Path, line, err)
		}

		row := make(temporal.Row, len(s.Columns))
		for i, col := range s.Columns {
			v, err := parseValue(col.Kind, record[fields[i]])
			if err != nil {
				return fmt.Errorf("extract %s line %d column %s: %w", s.Path, line, col.Name, err)
			}
			row[col.Name] = v
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// dateLayouts covers ISO dates plus the dotted and slashed forms SAP
// exports use.
var dateLayouts = []string{temporal.DateLayout, "02.01.2006", "02/01/2006"}

// parseValue canonicalizes one raw cell into the declared kind. Surrounding
// whitespace is never significant in padded extracts, and an empty cell is
// null regardless of kind.
func parseValue(kind temporal.Kind, raw string) (temporal.Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return temporal.Null(), nil
	}

	switch kind {
	case temporal.KindInt:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return temporal.Null(), fmt.Errorf("bad integer %q", trimmed)
		}
		return temporal.Int(i), nil
	case temporal.KindFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return temporal.Null(), fmt.Errorf("bad float %q", trimmed)
		}
		return temporal.Float(f), nil
	case temporal.KindDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return temporal.Date(t), nil
			}
		}
		return temporal.Null(), fmt.Errorf("bad date %q", trimmed)
	case temporal.KindBinary:
		return temporal.Binary([]byte(trimmed)), nil
	default:
		return temporal.String(trimmed), nil
	}
}
