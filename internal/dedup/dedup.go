// Package dedup drops duplicate raw records before flattening.
//
// Steam exports are stitched from several pages and routinely repeat an app.
// Duplicates are identified by a business key built from one or more dotted
// paths (default "data.appid"); the key text is hashed with xxh3 so the
// winner map stays small for large batches.
//
// Policies:
//
//   - "keep-first"   : earliest occurrence wins
//   - "keep-last"    : latest occurrence wins (default)
//   - "most-complete": most non-empty leaf values wins; ties go to the later
//
// Records missing any key path are never considered duplicates and pass
// through in their original position.
package dedup

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"steametl/pkg/records"
)

// Policy names.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// DeDup is a configured de-duplication pass.
type DeDup struct {
	// Keys are dotted paths forming the business key.
	Keys []string
	// Policy is one of KeepFirst, KeepLast, MostComplete; empty is KeepLast.
	Policy string
}

// Validate rejects unknown policies and empty key paths.
func (d DeDup) Validate() error {
	switch normPolicy(d.Policy) {
	case KeepFirst, KeepLast, MostComplete:
	default:
		return fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}
	for i, k := range d.Keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("dedup: key %d is empty", i)
		}
	}
	return nil
}

func normPolicy(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return KeepLast
	}
	return p
}

// Apply returns the surviving records in input order and the number dropped.
// With no keys configured, in is returned unchanged.
func (d DeDup) Apply(in []records.Record) ([]records.Record, int) {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in, 0
	}
	policy := normPolicy(d.Policy)

	type slot struct {
		index int
		score int
	}
	winners := make(map[uint64]slot, len(in))
	keep := make([]bool, len(in))

	for i, r := range in {
		h, ok := d.hash(r)
		if !ok {
			keep[i] = true
			continue
		}
		prev, exists := winners[h]
		switch {
		case !exists:
			s := slot{index: i}
			if policy == MostComplete {
				s.score = completeness(r)
			}
			winners[h] = s
		case policy == KeepFirst:
		case policy == MostComplete:
			s := slot{index: i, score: completeness(r)}
			if s.score >= prev.score {
				winners[h] = s
			}
		default:
			winners[h] = slot{index: i}
		}
	}

	idx := make([]int, 0, len(winners))
	for _, s := range winners {
		idx = append(idx, s.index)
	}
	sort.Ints(idx)
	for _, i := range idx {
		keep[i] = true
	}

	out := make([]records.Record, 0, len(idx))
	for i, r := range in {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out, len(in) - len(out)
}

// hash builds the key text from the configured paths and hashes it. A record
// lacking any key path is not keyed.
func (d DeDup) hash(r records.Record) (uint64, bool) {
	var b strings.Builder
	for _, k := range d.Keys {
		v, ok := r.Lookup(k)
		if !ok {
			return 0, false
		}
		if b.Len() > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case string:
			b.WriteString(strings.TrimSpace(t))
		case json.Number:
			b.WriteString(t.String())
		default:
			fmt.Fprint(&b, t)
		}
	}
	return xxh3.HashString(b.String()), true
}

// completeness counts non-empty leaves, descending into objects and arrays.
func completeness(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		if strings.TrimSpace(t) == "" {
			return 0
		}
		return 1
	case records.Record:
		return completeness(map[string]any(t))
	case map[string]any:
		n := 0
		for _, x := range t {
			n += completeness(x)
		}
		return n
	case []any:
		n := 0
		for _, x := range t {
			n += completeness(x)
		}
		return n
	default:
		return 1
	}
}
