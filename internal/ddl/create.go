// Package ddl renders the CREATE/DROP statements used to materialize pipeline
// tables in a SQL backend. The table model is backend-agnostic; a Dialect
// supplies quoting, type names and the "if missing" guard.
package ddl

import (
	"fmt"
	"strings"

	"steametl/internal/table"
)

// FromTable derives a TableDef for the given artifact columns, resolving each
// logical type through d.Types.
func FromTable(fqn string, cols []table.Column, d Dialect) (TableDef, error) {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		typ, ok := d.Types[c.Type]
		if !ok {
			return TableDef{}, fmt.Errorf("%s ddl: no SQL type for column %s (%s)", d.Name, c.Name, c.Type)
		}
		def.Columns = append(def.Columns, ColumnDef{Name: c.Name, SQLType: typ, Nullable: c.Nullable})
	}
	return def, nil
}

// BuildCreateTableSQL renders a CREATE TABLE statement:
//
//	CREATE TABLE <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...
//	);
//
// Identifiers are quoted with d.Ident. When d.CreateIfMissing is set the
// statement is wrapped so re-running it against an existing table is a no-op.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}
	ident := d.Ident
	if ident == nil {
		ident = func(s string) string { return s }
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(ident(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	quoted := quoteFQN(fqn, ident)
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", quoted, strings.Join(cols, ",\n  "))
	if d.CreateIfMissing != nil {
		stmt = d.CreateIfMissing(quoted, stmt)
	}
	return stmt, nil
}

// DropTableSQL renders the dialect's drop-if-exists statement.
func DropTableSQL(fqn string, d Dialect) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if d.Drop == nil {
		return "", fmt.Errorf("%s ddl: dialect cannot drop tables", d.Name)
	}
	return d.Drop(d.FQN(fqn)), nil
}

func quoteFQN(name string, ident func(string) string) string {
	if ident == nil {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = ident(p)
	}
	return strings.Join(parts, ".")
}
