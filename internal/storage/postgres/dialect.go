package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"steametl/internal/ddl"
	"steametl/internal/storage"
	"steametl/internal/table"
)

// Dialect describes Postgres DDL. Prices stay exact in NUMERIC and list
// columns use native text arrays.
var Dialect = ddl.Dialect{
	Name:  "postgres",
	Ident: pgIdent,
	Types: map[table.Type]string{
		table.Text:     "TEXT",
		table.Int:      "BIGINT",
		table.Float:    "DOUBLE PRECISION",
		table.Decimal:  "NUMERIC(20,4)",
		table.Bool:     "BOOLEAN",
		table.Date:     "DATE",
		table.TextList: "TEXT[]",
	},
	CreateIfMissing: func(_, create string) string {
		return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
	},
	Drop: func(fqn string) string { return "DROP TABLE IF EXISTS " + fqn },
}

// encode hands pgx values it can COPY in binary form.
func encode(c table.Column, v any) (any, error) {
	switch t := v.(type) {
	case nil, string, int64, float64, bool:
		return t, nil
	case decimal.Decimal:
		return pgtype.Numeric{Int: t.Coefficient(), Exp: t.Exponent(), Valid: true}, nil
	case time.Time:
		return pgtype.Date{Time: t, Valid: true}, nil
	case []string:
		if t == nil {
			t = []string{}
		}
		return t, nil
	default:
		return nil, fmt.Errorf("column %s: unsupported cell type %T", c.Name, v)
	}
}

// pgIdent quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func init() {
	storage.RegisterDialect("postgres", storage.Dialect{DDL: Dialect, Encode: encode})
}
