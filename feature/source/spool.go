package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"temporal-sync/core/temporal"
)

// CleanerKind names a spool cleaning strategy. Strategies are resolved
// through the explicit registry below, never by reflective lookup.
type CleanerKind string

const (
	// CleanerFixed repairs fixed-column SAP spools whose data rows carry
	// stray separator characters.
	CleanerFixed CleanerKind = "fixed"
	// CleanerCM07 flattens CM07 capacity spools, folding each work-center
	// header into its data rows.
	CleanerCM07 CleanerKind = "cm07"
)

// Cleaner rewrites a raw spool into a regular delimited file.
type Cleaner interface {
	Clean(r io.Reader, w io.Writer) error
}

var cleaners = map[CleanerKind]func(headerLines int) Cleaner{
	CleanerFixed: func(headerLines int) Cleaner {
		return &FixedSpoolCleaner{Separator: '|', ReplaceWith: ' ', HeaderLines: headerLines}
	},
	CleanerCM07: func(int) Cleaner { return &CM07Cleaner{} },
}

// NewCleaner resolves a cleaning strategy by name. headerLines only applies
// to the fixed strategy and gives the number of report preamble lines before
// the column header.
func NewCleaner(kind CleanerKind, headerLines int) (Cleaner, error) {
	build, ok := cleaners[kind]
	if !ok {
		return nil, fmt.Errorf("unknown spool cleaner %q", kind)
	}
	return build(headerLines), nil
}

// FixedSpoolCleaner repairs the column structure of fixed-width SAP spools.
//
// The separator positions found in the column header line are taken as the
// truth. Data rows containing the separator character inside a field value
// get those stray occurrences blanked out; rows with fewer separators than
// the header (page footers, notes) and repeated header lines are dropped.
type FixedSpoolCleaner struct {
	Separator   byte
	ReplaceWith byte
	HeaderLines int
}

func (c *FixedSpoolCleaner) Clean(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i := 0; i < c.HeaderLines; i++ {
		if !sc.Scan() {
			return fmt.Errorf("spool ended inside the %d-line preamble", c.HeaderLines)
		}
	}

	if !sc.Scan() {
		return fmt.Errorf("spool has no column header line")
	}
	header := sc.Text()
	headerPositions := separatorPositions(header, c.Separator)
	if len(headerPositions) == 0 {
		return fmt.Errorf("column header %q contains no separator %q", header, string(c.Separator))
	}
	inHeader := make(map[int]struct{}, len(headerPositions))
	for _, p := range headerPositions {
		inHeader[p] = struct{}{}
	}

	out := bufio.NewWriter(w)
	fmt.Fprintln(out, header)

	for sc.Scan() {
		line := sc.Text()
		if line == header {
			continue
		}

		positions := separatorPositions(line, c.Separator)
		if len(positions) < len(headerPositions) {
			continue
		}

		if len(positions) > len(headerPositions) {
			b := []byte(line)
			for _, p := range positions {
				if _, ok := inHeader[p]; !ok {
					b[p] = c.ReplaceWith
				}
			}
			line = string(b)
		}

		fmt.Fprintln(out, line)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return out.Flush()
}

func separatorPositions(line string, sep byte) []int {
	var positions []int
	for i := 0; i < len(line); i++ {
		if line[i] == sep {
			positions = append(positions, i)
		}
	}
	return positions
}

// cm07Header is the column header of the flattened CM07 output.
const cm07Header = "Centro trab|Descricao|Centro|Dia|Necessidade|Capacid.útil|Carga|Capac.livre|Unid."

var (
	cm07HeaderRe = regexp.MustCompile(`^Centro trab\.\s+(\w+)\s+([\S\s]+)Cent\..+(.{4})$`)
	cm07DataRe   = regexp.MustCompile(`^\s+\|`)
)

// CM07Cleaner rewrites a CM07 capacity spool, prefixing every capacity row
// with the work-center data captured from the section header above it.
type CM07Cleaner struct{}

func (c *CM07Cleaner) Clean(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := bufio.NewWriter(w)
	fmt.Fprintln(out, cm07Header)

	var workCenter string
	for sc.Scan() {
		line := sc.Text()

		if m := cm07HeaderRe.FindStringSubmatch(line); m != nil {
			workCenter = strings.Join(m[1:], "|")
		}

		if cm07DataRe.MatchString(line) {
			fmt.Fprintln(out, workCenter+strings.TrimSpace(line))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return out.Flush()
}

// SpoolSource cleans a raw SAP spool into a temporary delimited file and
// streams it as typed rows. The cleaned output is pipe-separated.
type SpoolSource struct {
	// Path is the raw spool location.
	Path string
	// Cleaner names the cleaning strategy.
	Cleaner CleanerKind
	// HeaderLines is the preamble length for the fixed strategy.
	HeaderLines int
	// Columns declares the columns to read and their kinds.
	Columns []temporal.Column
}

func (s *SpoolSource) Each(ctx context.Context, fn func(temporal.Row) error) error {
	cleaner, err := NewCleaner(s.Cleaner, s.HeaderLines)
	if err != nil {
		return err
	}

	raw, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("opening spool %s: %w", s.Path, err)
	}
	defer raw.Close()

	var cleaned bytes.Buffer
	if err := cleaner.Clean(raw, &cleaned); err != nil {
		return fmt.Errorf("cleaning spool %s: %w", s.Path, err)
	}

	csv := &CSVSource{Path: s.Path, Columns: s.Columns, Comma: '|'}
	return csv.each(ctx, &cleaned, fn)
}
