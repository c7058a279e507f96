package ddl

import "steametl/internal/table"

// ColumnDef describes a single column of a table to create.
//
// Name is unquoted; quoting happens at render time through the Dialect.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name (optionally schema-qualified, "schema.table")
// and an ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures what differs between SQL backends when creating and
// replacing artifact tables.
type Dialect struct {
	// Name is used in error messages ("postgres", "mssql", ...).
	Name string

	// Ident quotes a single identifier segment.
	Ident func(string) string

	// Types maps logical column types to SQL types.
	Types map[table.Type]string

	// CreateIfMissing turns a plain CREATE TABLE statement into one that is a
	// no-op when the table exists. fqn is already quoted.
	CreateIfMissing func(fqn, create string) string

	// Drop returns a statement that drops the table when it exists.
	Drop func(fqn string) string
}

// FQN quotes a possibly schema-qualified name segment by segment.
func (d Dialect) FQN(name string) string {
	return quoteFQN(name, d.Ident)
}
