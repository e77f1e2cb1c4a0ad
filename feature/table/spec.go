package table

import (
	"fmt"
	"regexp"

	"temporal-sync/core/temporal"
)

// identRe restricts table and column names to plain SQL identifiers. Names
// are interpolated into DDL and UPDATE statements, so anything else is
// rejected up front.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Spec describes one versioned target table: its name, the business columns
// and the natural key identifying a logical entity across versions. The
// surrogate id and valid_from/valid_to system columns are implied; every
// versioned table carries them.
type Spec struct {
	Name       string
	Columns    []temporal.Column
	NaturalKey []string
}

// Validate checks the spec is internally consistent.
func (s Spec) Validate() error {
	if !identRe.MatchString(s.Name) {
		return fmt.Errorf("invalid table name %q", s.Name)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("table %s: at least one column is required", s.Name)
	}

	byName := make(map[string]temporal.Column, len(s.Columns))
	for _, col := range s.Columns {
		if !identRe.MatchString(col.Name) {
			return fmt.Errorf("table %s: invalid column name %q", s.Name, col.Name)
		}
		if temporal.IsSystemColumn(col.Name) {
			return fmt.Errorf("table %s: column %q collides with a system column", s.Name, col.Name)
		}
		if _, dup := byName[col.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %q", s.Name, col.Name)
		}
		byName[col.Name] = col
	}

	if len(s.NaturalKey) == 0 {
		return fmt.Errorf("table %s: natural key is required", s.Name)
	}
	for _, name := range s.NaturalKey {
		if _, ok := byName[name]; !ok {
			return fmt.Errorf("table %s: natural-key column %q is not a declared column", s.Name, name)
		}
	}
	return nil
}

// column returns the declared column with the given name.
func (s Spec) column(name string) (temporal.Column, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return temporal.Column{}, false
}
