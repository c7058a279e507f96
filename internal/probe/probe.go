// Package probe samples a catalog source and reports how well its records fit
// the flattening schema: which dotted paths occur, how often each mapped column
// is present, and which release-date layouts the sample actually uses. Suggest
// turns a report into a starter pipeline file.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"steametl/internal/datasource"
	"steametl/internal/flatten"
	"steametl/internal/normalize"
	jsonparser "steametl/internal/parser/json"
	"steametl/pkg/records"
)

// DefaultMaxRecords bounds the sample when Options.MaxRecords is zero.
const DefaultMaxRecords = 500

// maxUnparsed bounds the unparseable release dates kept as examples.
const maxUnparsed = 10

// Options control sampling.
type Options struct {
	// MaxRecords caps the records inspected; the whole input is still decoded.
	MaxRecords int
	// Parser selects the input shape; the zero value auto-detects.
	Parser jsonparser.Options
	// Mappings are checked for coverage. Nil selects flatten.DefaultMappings.
	Mappings []flatten.Mapping
}

// PathStat describes one dotted path seen in the sample.
type PathStat struct {
	Path string
	// Present counts records holding a non-null value at Path.
	Present int
	// Types are the JSON kinds observed, sorted.
	Types   []string
	Example string
}

// Coverage is the presence of one mapped column in the sample.
type Coverage struct {
	Column   string
	Path     string
	Required bool
	Present  int
	// Candidate is another observed path with the same leaf name, offered
	// when Path is never present.
	Candidate string
}

// Share is Present as a fraction of n.
func (c Coverage) Share(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(c.Present) / float64(n)
}

// LayoutHits counts release dates matched by one layout.
type LayoutHits struct {
	Layout string
	Hits   int
}

// Report is the result of probing one source.
type Report struct {
	// Decoded is the number of records in the input; Sampled how many were
	// inspected.
	Decoded int
	Sampled int
	// Paths are in first-seen order.
	Paths   []PathStat
	Columns []Coverage
	// Layouts lists the default layouts with at least one hit, in priority
	// order.
	Layouts []LayoutHits
	// Unparsed holds release-date values no default layout accepts.
	Unparsed []string
	// SchemaErr is the structural error the pipeline would raise for this
	// sample, if any.
	SchemaErr error
}

// Run decodes src and inspects up to opt.MaxRecords records.
func Run(ctx context.Context, src datasource.Source, opt Options) (*Report, error) {
	if opt.MaxRecords <= 0 {
		opt.MaxRecords = DefaultMaxRecords
	}
	p, err := jsonparser.New(opt.Parser)
	if err != nil {
		return nil, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	defer rc.Close()

	recs, err := p.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("probe: no records found")
	}
	return Inspect(recs, opt)
}

// Inspect builds a report from already decoded records.
func Inspect(recs []records.Record, opt Options) (*Report, error) {
	if opt.MaxRecords <= 0 {
		opt.MaxRecords = DefaultMaxRecords
	}
	mappings := opt.Mappings
	if mappings == nil {
		mappings = flatten.DefaultMappings()
	}
	f, err := flatten.New(mappings)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	sample := recs[:min(len(recs), opt.MaxRecords)]
	rep := &Report{Decoded: len(recs), Sampled: len(sample)}

	paths := orderedmap.New[string, *pathAcc]()
	for _, r := range sample {
		walk("", map[string]any(r), paths)
	}
	for pair := paths.Oldest(); pair != nil; pair = pair.Next() {
		rep.Paths = append(rep.Paths, pair.Value.stat(pair.Key))
	}

	for _, m := range f.Mappings() {
		c := Coverage{Column: m.Column, Path: m.Path, Required: m.Required}
		for _, r := range sample {
			if r.Has(m.Path) {
				c.Present++
			}
		}
		if c.Present == 0 {
			c.Candidate = candidate(m.Path, rep.Paths)
		}
		rep.Columns = append(rep.Columns, c)
	}

	rep.SchemaErr = f.CheckBatch(sample)

	// Date layouts are read through the candidate paths when the default
	// ones are missing.
	dates := f
	if overrides := rep.overrides(); len(overrides) > 0 {
		if ms, err := flatten.WithPaths(mappings, overrides); err == nil {
			if alt, err := flatten.New(ms); err == nil {
				dates = alt
			}
		}
	}
	rep.Layouts, rep.Unparsed = dateLayouts(sample, dates)
	return rep, nil
}

// overrides maps each never-present column to its candidate path.
func (r *Report) overrides() map[string]string {
	out := map[string]string{}
	for _, c := range r.Columns {
		if c.Present == 0 && c.Candidate != "" {
			out[c.Column] = c.Candidate
		}
	}
	return out
}

type pathAcc struct {
	present int
	types   map[string]struct{}
	example string
}

func (a *pathAcc) stat(path string) PathStat {
	types := make([]string, 0, len(a.types))
	for t := range a.types {
		types = append(types, t)
	}
	slices.Sort(types)
	return PathStat{Path: path, Present: a.present, Types: types, Example: a.example}
}

// walk records every leaf path of v. Arrays are leaves.
func walk(prefix string, v any, out *orderedmap.OrderedMap[string, *pathAcc]) {
	if m, ok := v.(map[string]any); ok && (prefix == "" || len(m) > 0) {
		for _, k := range sortedKeys(m) {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			walk(key, m[k], out)
		}
		return
	}

	acc, ok := out.Get(prefix)
	if !ok {
		acc = &pathAcc{types: map[string]struct{}{}}
		out.Set(prefix, acc)
	}
	kind := kindOf(v)
	acc.types[kind] = struct{}{}
	if kind == "null" {
		return
	}
	acc.present++
	if acc.example == "" {
		acc.example = example(v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func example(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		s = string(b)
	}
	const maxExample = 40
	if r := []rune(s); len(r) > maxExample {
		s = string(r[:maxExample]) + "…"
	}
	return s
}

// candidate returns the most frequent observed path whose last segment
// matches the last segment of path.
func candidate(path string, stats []PathStat) string {
	leaf := path[strings.LastIndex(path, ".")+1:]
	best, bestN := "", 0
	for _, s := range stats {
		if s.Path == path || s.Present == 0 {
			continue
		}
		if s.Path[strings.LastIndex(s.Path, ".")+1:] != leaf {
			continue
		}
		if s.Present > bestN {
			best, bestN = s.Path, s.Present
		}
	}
	return best
}

func dateLayouts(sample []records.Record, f *flatten.Flattener) ([]LayoutHits, []string) {
	var raws []string
	for _, r := range sample {
		cell := f.Flatten(r).Get(flatten.ColReleaseDate)
		if !cell.Present {
			continue
		}
		if s := strings.TrimSpace(normalize.DateText(cell.Value)); s != "" {
			raws = append(raws, s)
		}
	}
	if len(raws) == 0 {
		return nil, nil
	}

	all, err := normalize.NewDates(nil)
	if err != nil {
		return nil, nil
	}
	var hits []LayoutHits
	for _, layout := range normalize.DefaultDateLayouts {
		d, err := normalize.NewDates([]string{layout})
		if err != nil {
			continue
		}
		n := 0
		for _, s := range raws {
			if d.Parse(s).OK {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, LayoutHits{Layout: layout, Hits: n})
		}
	}

	var unparsed []string
	for _, s := range raws {
		if all.Parse(s).OK || slices.Contains(unparsed, s) {
			continue
		}
		unparsed = append(unparsed, s)
		if len(unparsed) == maxUnparsed {
			break
		}
	}
	return hits, unparsed
}
