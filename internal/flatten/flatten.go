// Package flatten projects nested catalog records onto a fixed, flat column
// set using a declarative column -> path mapping.
//
// The flattener never interprets values; it only answers "what is at this
// path, if anything". Typing and validation happen in package normalize.
package flatten

import (
	"errors"
	"fmt"

	"steametl/pkg/records"
)

// Flat column names. These are the only names that survive flattening; no
// nested source path is visible past this package.
const (
	ColID              = "id"
	ColAppID           = "app_id"
	ColName            = "name"
	ColDeveloper       = "developer"
	ColPublisher       = "publisher"
	ColType            = "type"
	ColPlatformWindows = "platform_windows"
	ColPlatformMac     = "platform_mac"
	ColPlatformLinux   = "platform_linux"
	ColPrice           = "price_raw"
	ColInitialPrice    = "initial_price_raw"
	ColDiscount        = "discount"
	ColReleaseDate     = "release_date_raw"
	ColPositive        = "positive_reviews"
	ColNegative        = "negative_reviews"
	ColLanguages       = "supported_languages"
	ColRequiredAge     = "required_age"
	ColOwners          = "owners"
	ColCCU             = "ccu"
	ColGenres          = "genres"
	ColTags            = "tags"
)

// ErrSchemaMismatch is the sentinel wrapped by SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a required path that no record in a batch has.
type SchemaMismatchError struct {
	Column string
	Path   string
	Batch  int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: required path %q (column %s) absent in all %d records",
		e.Path, e.Column, e.Batch)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// Mapping binds one flat column to one dotted source path.
type Mapping struct {
	Column   string
	Path     string
	Required bool
}

// DefaultMappings returns the column table for Steam catalog records of the
// form {"id": ..., "data": {...}}.
func DefaultMappings() []Mapping {
	return []Mapping{
		{Column: ColID, Path: "id", Required: true},
		{Column: ColAppID, Path: "data.appid", Required: true},
		{Column: ColName, Path: "data.name", Required: true},
		{Column: ColDeveloper, Path: "data.developer"},
		{Column: ColPublisher, Path: "data.publisher"},
		{Column: ColType, Path: "data.type"},
		{Column: ColPlatformWindows, Path: "data.platforms.windows"},
		{Column: ColPlatformMac, Path: "data.platforms.mac"},
		{Column: ColPlatformLinux, Path: "data.platforms.linux"},
		{Column: ColPrice, Path: "data.price"},
		{Column: ColInitialPrice, Path: "data.initialprice"},
		{Column: ColDiscount, Path: "data.discount"},
		{Column: ColReleaseDate, Path: "data.release_date"},
		{Column: ColPositive, Path: "data.positive"},
		{Column: ColNegative, Path: "data.negative"},
		{Column: ColLanguages, Path: "data.languages"},
		{Column: ColRequiredAge, Path: "data.required_age"},
		{Column: ColOwners, Path: "data.owners"},
		{Column: ColCCU, Path: "data.ccu"},
		{Column: ColGenres, Path: "data.genre"},
		{Column: ColTags, Path: "data.tags"},
	}
}

// Cell is one projected value. Present is false when the path was missing or
// held JSON null; Value is nil in that case.
type Cell struct {
	Value   any
	Present bool
}

// Row is one flattened record. Cells are positional and aligned with
// Columns(); a Row from a Flattener always carries every declared column.
type Row struct {
	f     *Flattener
	Cells []Cell
}

// Columns returns the declared column order.
func (r Row) Columns() []string { return r.f.columns }

// Get returns the cell for col, or an absent cell for an unknown column.
func (r Row) Get(col string) Cell {
	i, ok := r.f.index[col]
	if !ok {
		return Cell{}
	}
	return r.Cells[i]
}

// Flattener applies a fixed mapping table. It is immutable after New and safe
// for concurrent use.
type Flattener struct {
	mappings []Mapping
	columns  []string
	index    map[string]int
}

// New validates mappings and builds a Flattener. Column names must be unique
// and paths non-empty.
func New(mappings []Mapping) (*Flattener, error) {
	if len(mappings) == 0 {
		return nil, errors.New("flatten: no mappings")
	}
	f := &Flattener{
		mappings: append([]Mapping(nil), mappings...),
		columns:  make([]string, len(mappings)),
		index:    make(map[string]int, len(mappings)),
	}
	for i, m := range mappings {
		if m.Column == "" || m.Path == "" {
			return nil, fmt.Errorf("flatten: mapping %d has empty column or path", i)
		}
		if _, dup := f.index[m.Column]; dup {
			return nil, fmt.Errorf("flatten: duplicate column %q", m.Column)
		}
		f.index[m.Column] = i
		f.columns[i] = m.Column
	}
	return f, nil
}

// WithPaths returns a copy of base where the source path of each column named
// in overrides is replaced. Overrides cannot add or remove columns.
func WithPaths(base []Mapping, overrides map[string]string) ([]Mapping, error) {
	out := append([]Mapping(nil), base...)
	seen := 0
	for i := range out {
		if p, ok := overrides[out[i].Column]; ok {
			if p == "" {
				return nil, fmt.Errorf("flatten: empty path override for %q", out[i].Column)
			}
			out[i].Path = p
			seen++
		}
	}
	if seen != len(overrides) {
		for col := range overrides {
			if !hasColumn(out, col) {
				return nil, fmt.Errorf("flatten: path override for unknown column %q", col)
			}
		}
	}
	return out, nil
}

func hasColumn(ms []Mapping, col string) bool {
	for _, m := range ms {
		if m.Column == col {
			return true
		}
	}
	return false
}

// Columns returns the declared column names in order.
func (f *Flattener) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Mappings returns a copy of the mapping table.
func (f *Flattener) Mappings() []Mapping {
	return append([]Mapping(nil), f.mappings...)
}

// Flatten projects r. It never fails; missing paths become absent cells.
func (f *Flattener) Flatten(r records.Record) Row {
	cells := make([]Cell, len(f.mappings))
	for i, m := range f.mappings {
		v, ok := r.Lookup(m.Path)
		cells[i] = Cell{Value: v, Present: ok}
	}
	return Row{f: f, Cells: cells}
}

// CheckBatch returns a *SchemaMismatchError for the first required mapping
// whose path is absent in every record of batch. An empty batch passes.
func (f *Flattener) CheckBatch(batch []records.Record) error {
	if len(batch) == 0 {
		return nil
	}
	for _, m := range f.mappings {
		if !m.Required {
			continue
		}
		found := false
		for _, r := range batch {
			if r.Has(m.Path) {
				found = true
				break
			}
		}
		if !found {
			return &SchemaMismatchError{Column: m.Column, Path: m.Path, Batch: len(batch)}
		}
	}
	return nil
}
