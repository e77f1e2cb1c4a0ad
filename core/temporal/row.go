package temporal

import (
	"errors"
	"fmt"
	"strings"
)

// System columns every versioned table carries next to the business payload.
// They are excluded from content hashing and from natural keys.
const (
	ColumnID        = "id"
	ColumnValidFrom = "valid_from"
	ColumnValidTo   = "valid_to"
)

// IsSystemColumn reports whether name is one of the three system columns.
func IsSystemColumn(name string) bool {
	return name == ColumnID || name == ColumnValidFrom || name == ColumnValidTo
}

// Row is a single record keyed by column name. Column order never matters:
// hashing and key construction impose their own deterministic ordering.
type Row map[string]Value

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r)+2)
	for name, v := range r {
		out[name] = v
	}
	return out
}

// Column describes one business column of a source or target schema.
type Column struct {
	Name string
	Kind Kind
}

// Key is a natural-key tuple in its canonical string form. It is built by
// joining the canonical encodings of the key columns with a unit separator,
// so it is stable across column ordering and value formatting differences.
type Key string

const keySeparator = "\x1f"

// ErrMissingKeyColumn is returned when a row lacks a declared natural-key
// column. Skipping such a row would make it appear deleted in the sweep, so
// the whole run must stop instead.
var ErrMissingKeyColumn = errors.New("row is missing a natural-key column")

// MakeKey builds the natural-key tuple for a row.
func MakeKey(row Row, naturalKey []string) (Key, error) {
	parts := make([]string, 0, len(naturalKey))
	for _, name := range naturalKey {
		v, ok := row[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingKeyColumn, name)
		}
		parts = append(parts, string(v.Canonical()))
	}
	return Key(strings.Join(parts, keySeparator)), nil
}

// String renders the key for log and error messages.
func (k Key) String() string {
	return "(" + strings.ReplaceAll(string(k), keySeparator, ", ") + ")"
}
