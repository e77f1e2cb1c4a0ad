package table

import (
	"context"
	"fmt"
	"time"

	"temporal-sync/core/temporal"
	"temporal-sync/core/utils"

	"gorm.io/gorm"
)

// Sink is the gorm-backed implementation of temporal.Sink for one versioned
// table. It issues plain batched SQL and owns no transaction: pass it the
// *gorm.DB of the ambient run transaction.
type Sink struct {
	db       *gorm.DB
	spec     Spec
	sentinel time.Time
}

// NewSink returns a sink writing to the table described by spec. sentinel is
// the open-ended valid_to date marking currently valid rows.
func NewSink(db *gorm.DB, spec Spec, sentinel time.Time) *Sink {
	return &Sink{db: db, spec: spec, sentinel: sentinel}
}

// ScanCurrent streams the currently-valid slice through fn using the
// database cursor, so the target table is never materialized in memory.
func (s *Sink) ScanCurrent(ctx context.Context, fn func(temporal.Record) error) error {
	selects := make([]string, 0, len(s.spec.Columns)+1)
	selects = append(selects, temporal.ColumnID)
	for _, col := range s.spec.Columns {
		selects = append(selects, col.Name)
	}

	rows, err := s.db.WithContext(ctx).
		Table(s.spec.Name).
		Select(selects).
		Where(quote(temporal.ColumnValidTo)+" = ?", s.sentinel).
		Rows()
	if err != nil {
		return fmt.Errorf("scanning current slice of %s: %w", s.spec.Name, err)
	}
	defer rows.Close()

	raw := make([]any, len(selects))
	ptrs := make([]any, len(selects))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning row of %s: %w", s.spec.Name, err)
		}

		id, err := utils.ToInt64(raw[0])
		if err != nil {
			return fmt.Errorf("table %s: bad surrogate id: %w", s.spec.Name, err)
		}

		row := make(temporal.Row, len(s.spec.Columns))
		for i, col := range s.spec.Columns {
			v, err := decodeValue(col.Kind, raw[i+1])
			if err != nil {
				return fmt.Errorf("table %s id=%d column %s: %w", s.spec.Name, id, col.Name, err)
			}
			row[col.Name] = v
		}

		if err := fn(temporal.Record{ID: id, Row: row}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// InsertBatch appends new version rows in one multi-row insert. The surrogate
// id is assigned by the database.
func (s *Sink) InsertBatch(ctx context.Context, rows []temporal.Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch := make([]map[string]any, len(rows))
	for i, row := range rows {
		record := make(map[string]any, len(row))
		for name, v := range row {
			if name == temporal.ColumnID {
				continue
			}
			if _, declared := s.spec.column(name); !declared && !temporal.IsSystemColumn(name) {
				return fmt.Errorf("table %s: row carries undeclared column %q", s.spec.Name, name)
			}
			record[name] = v.Native()
		}
		batch[i] = record
	}

	if err := s.db.WithContext(ctx).Table(s.spec.Name).Create(&batch).Error; err != nil {
		return fmt.Errorf("inserting into %s: %w", s.spec.Name, err)
	}
	return nil
}

// CloseBatch sets valid_to to asOf for exactly the given ids.
func (s *Sink) CloseBatch(ctx context.Context, ids []int64, asOf time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).
		Table(s.spec.Name).
		Where(quote(temporal.ColumnID)+" IN ?", ids).
		Update(temporal.ColumnValidTo, asOf)
	if result.Error != nil {
		return fmt.Errorf("closing rows of %s: %w", s.spec.Name, result.Error)
	}
	if result.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("closing rows of %s: expected %d rows, updated %d",
			s.spec.Name, len(ids), result.RowsAffected)
	}
	return nil
}

// decodeValue converts one scanned database value into the closed Value
// variant declared for the column.
func decodeValue(kind temporal.Kind, raw any) (temporal.Value, error) {
	if raw == nil {
		return temporal.Null(), nil
	}
	switch kind {
	case temporal.KindInt:
		i, err := utils.ToInt64(raw)
		if err != nil {
			return temporal.Null(), err
		}
		return temporal.Int(i), nil
	case temporal.KindFloat:
		f, err := utils.ToFloat64(raw)
		if err != nil {
			return temporal.Null(), err
		}
		return temporal.Float(f), nil
	case temporal.KindDate:
		t, err := utils.ToTime(raw)
		if err != nil {
			return temporal.Null(), err
		}
		return temporal.Date(t), nil
	case temporal.KindBinary:
		switch b := raw.(type) {
		case []byte:
			return temporal.Binary(append([]byte(nil), b...)), nil
		case string:
			return temporal.Binary([]byte(b)), nil
		default:
			return temporal.Null(), fmt.Errorf("cannot convert %T to binary", raw)
		}
	default:
		s, err := utils.ToString(raw)
		if err != nil {
			return temporal.Null(), err
		}
		return temporal.String(s), nil
	}
}
