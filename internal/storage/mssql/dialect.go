package mssql

import (
	"fmt"
	"strings"

	"steametl/internal/ddl"
	"steametl/internal/table"
)

// Dialect describes T-SQL DDL. T-SQL has no CREATE TABLE IF NOT EXISTS, so
// creation is guarded with OBJECT_ID.
var Dialect = ddl.Dialect{
	Name:  "mssql",
	Ident: msIdent,
	Types: map[table.Type]string{
		table.Text:     "NVARCHAR(MAX)",
		table.Int:      "BIGINT",
		table.Float:    "FLOAT",
		table.Decimal:  "DECIMAL(20,4)",
		table.Bool:     "BIT",
		table.Date:     "DATE",
		table.TextList: "NVARCHAR(MAX)",
	},
	CreateIfMissing: func(fqn, create string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND", objectName(fqn), create)
	},
	Drop: func(fqn string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s;", objectName(fqn), fqn)
	},
}

// objectName escapes a quoted FQN for use inside an N'...' literal.
func objectName(fqn string) string { return strings.ReplaceAll(fqn, "'", "''") }
