package sqlite

import (
	"strings"
	"time"

	"steametl/internal/ddl"
	"steametl/internal/storage"
	"steametl/internal/table"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:steam.db?_pragma=busy_timeout(5000)"
	//   "steam.db"
	//   ":memory:"
	DSN string
}

// Dialect describes SQLite DDL. SQLite has no schemas in the Postgres sense;
// "main.games" is passed through. Decimals are stored as TEXT to keep them
// exact and lists as JSON text.
var Dialect = ddl.Dialect{
	Name:  "sqlite",
	Ident: ident,
	Types: map[table.Type]string{
		table.Text:     "TEXT",
		table.Int:      "INTEGER",
		table.Float:    "REAL",
		table.Decimal:  "TEXT",
		table.Bool:     "INTEGER",
		table.Date:     "TEXT",
		table.TextList: "TEXT",
	},
	CreateIfMissing: func(_, create string) string {
		return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
	},
	Drop: func(fqn string) string { return "DROP TABLE IF EXISTS " + fqn + ";" },
}

func ident(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// encode stores dates as ISO text so SQLite date functions work on them.
func encode(c table.Column, v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t.Format(table.DateLayout), nil
	}
	return storage.EncodePlain(c, v)
}
