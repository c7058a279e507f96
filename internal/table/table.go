// Package table is the typed, named-column shape every pipeline artifact
// takes before it is written out: the games table, the genre table, the
// summaries and the quality report.
//
// Cells hold one of: nil (null), string, int64, float64, decimal.Decimal,
// bool, time.Time (calendar date) or []string.
package table

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type is a logical column type. Storage backends map it to SQL types.
type Type string

const (
	Text     Type = "text"
	Int      Type = "int"
	Float    Type = "float"
	Decimal  Type = "decimal"
	Bool     Type = "bool"
	Date     Type = "date"
	TextList Type = "text_list"
)

// Column is a named, typed column.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Table is an ordered sequence of rows aligned with Columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Validate checks that every row has the declared width and that every cell
// matches its column type.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table: empty name")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s: row %d has %d cells, want %d", t.Name, i, len(row), len(t.Columns))
		}
		for j, v := range row {
			if err := check(t.Columns[j], v); err != nil {
				return fmt.Errorf("table %s: row %d: %w", t.Name, i, err)
			}
		}
	}
	return nil
}

func check(c Column, v any) error {
	if v == nil {
		if !c.Nullable {
			return fmt.Errorf("column %s: null in non-nullable column", c.Name)
		}
		return nil
	}
	var ok bool
	switch c.Type {
	case Text:
		_, ok = v.(string)
	case Int:
		_, ok = v.(int64)
	case Float:
		_, ok = v.(float64)
	case Decimal:
		_, ok = v.(decimal.Decimal)
	case Bool:
		_, ok = v.(bool)
	case Date:
		_, ok = v.(time.Time)
	case TextList:
		_, ok = v.([]string)
	default:
		return fmt.Errorf("column %s: unknown type %q", c.Name, c.Type)
	}
	if !ok {
		return fmt.Errorf("column %s: %T is not %s", c.Name, v, c.Type)
	}
	return nil
}

// Helpers turning optional values into cells.

func intPtr(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func int64Ptr(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func decimalPtr(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return *p
}

func datePtr(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}
