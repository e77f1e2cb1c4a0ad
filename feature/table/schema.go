package table

import (
	"fmt"
	"strings"

	"temporal-sync/core/database"
	"temporal-sync/core/temporal"

	"gorm.io/gorm"
)

// EnsureTable creates the versioned table if it does not exist: the
// surrogate id primary key, the declared business columns, the
// valid_from/valid_to pair, an index on valid_to (the current-slice scan)
// and an index over the natural key. If the table already exists it is left
// untouched, except that the presence of the three system columns is
// verified so a run never mutates a table that is not actually versioned.
func EnsureTable(db *gorm.DB, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	if db.Migrator().HasTable(spec.Name) {
		missing, err := database.HasColumns(db, spec.Name, []string{
			temporal.ColumnID, temporal.ColumnValidFrom, temporal.ColumnValidTo,
		})
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s exists but lacks system columns %v", spec.Name, missing)
		}
		return nil
	}

	sqlite := db.Dialector.Name() == "sqlite"

	var defs []string
	if sqlite {
		defs = append(defs, quote(temporal.ColumnID)+" INTEGER PRIMARY KEY AUTOINCREMENT")
	} else {
		defs = append(defs, quote(temporal.ColumnID)+" BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	}
	for _, col := range spec.Columns {
		defs = append(defs, quote(col.Name)+" "+sqlType(col.Kind, sqlite))
	}
	defs = append(defs,
		quote(temporal.ColumnValidFrom)+" DATE NOT NULL",
		quote(temporal.ColumnValidTo)+" DATE NOT NULL")

	create := fmt.Sprintf("CREATE TABLE %s (%s)", quote(spec.Name), strings.Join(defs, ", "))
	if err := db.Exec(create).Error; err != nil {
		return fmt.Errorf("creating table %s: %w", spec.Name, err)
	}

	// Index on valid_to serves the current-slice scan; the natural-key index
	// serves targeted history lookups.
	validToIx := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		quote("ix_"+spec.Name+"_"+temporal.ColumnValidTo), quote(spec.Name), quote(temporal.ColumnValidTo))
	if err := db.Exec(validToIx).Error; err != nil {
		return fmt.Errorf("indexing %s: %w", spec.Name, err)
	}

	keyCols := make([]string, len(spec.NaturalKey))
	for i, name := range spec.NaturalKey {
		keyCols[i] = quote(name)
	}
	keyIx := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		quote("ix_"+spec.Name+"_"+strings.Join(spec.NaturalKey, "_")),
		quote(spec.Name), strings.Join(keyCols, ", "))
	if err := db.Exec(keyIx).Error; err != nil {
		return fmt.Errorf("indexing %s: %w", spec.Name, err)
	}

	return nil
}

func sqlType(kind temporal.Kind, sqlite bool) string {
	switch kind {
	case temporal.KindInt:
		if sqlite {
			return "INTEGER"
		}
		return "BIGINT"
	case temporal.KindFloat:
		if sqlite {
			return "REAL"
		}
		return "DOUBLE"
	case temporal.KindDate:
		return "DATE"
	case temporal.KindBinary:
		return "BLOB"
	default:
		if sqlite {
			return "TEXT"
		}
		return "VARCHAR(255)"
	}
}

// quote backtick-quotes an identifier. Both MySQL and SQLite accept the
// backtick form; identifiers are validated against identRe before reaching
// this point.
func quote(name string) string {
	return "`" + name + "`"
}
