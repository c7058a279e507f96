package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"steametl/internal/ddl"
	"steametl/internal/table"
)

// Encoder converts a table cell into a value the backend driver accepts.
type Encoder func(c table.Column, v any) (any, error)

// Dialect is what a backend registers next to its Factory so tables can be
// created and filled without the caller knowing the backend.
type Dialect struct {
	DDL    ddl.Dialect
	Encode Encoder
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// LookupDialect returns the dialect registered for kind.
func LookupDialect(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return Dialect{}, fmt.Errorf("%w %q: no dialect registered", ErrUnsupportedKind, kind)
	}
	if d.Encode == nil {
		d.Encode = EncodePlain
	}
	return d, nil
}

// EncodePlain is the encoder for drivers without native decimal or array
// support: decimals become their exact string form and lists a JSON array.
// Dates are passed as time.Time at midnight UTC.
func EncodePlain(c table.Column, v any) (any, error) {
	switch t := v.(type) {
	case nil, string, int64, float64, bool:
		return t, nil
	case decimal.Decimal:
		return t.String(), nil
	case time.Time:
		return t.UTC(), nil
	case []string:
		return table.EncodeList(t), nil
	default:
		return nil, fmt.Errorf("column %s: unsupported cell type %T", c.Name, v)
	}
}
