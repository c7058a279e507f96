package mysql

import (
	"strings"

	"steametl/internal/ddl"
	"steametl/internal/table"
)

// Dialect describes MySQL DDL. Lists are stored in a JSON column.
var Dialect = ddl.Dialect{
	Name:  "mysql",
	Ident: myIdent,
	Types: map[table.Type]string{
		table.Text:     "TEXT",
		table.Int:      "BIGINT",
		table.Float:    "DOUBLE",
		table.Decimal:  "DECIMAL(20,4)",
		table.Bool:     "BOOLEAN",
		table.Date:     "DATE",
		table.TextList: "JSON",
	},
	CreateIfMissing: func(_, create string) string {
		return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
	},
	Drop: func(fqn string) string { return "DROP TABLE IF EXISTS " + fqn },
}
