package normalize

import (
	"fmt"
	"strings"
	"time"

	"steametl/internal/textutil"
)

// DefaultDateLayouts is the recognized release-date shapes, highest priority
// first. Partial dates ("Mar 2021", "Q1 2021", "Coming soon") never match.
var DefaultDateLayouts = []string{
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"2 Jan, 2006",
	"2 Jan 2006",
	"02.01.2006",
}

// DateParser is one date-shape strategy.
type DateParser interface {
	Name() string
	Parse(s string) (time.Time, bool)
}

// LayoutParser matches a single time.Parse layout.
type LayoutParser struct {
	Layout string
}

func (p LayoutParser) Name() string { return p.Layout }

// Parse returns the UTC calendar date for s. time.Parse already rejects
// out-of-range months and days (including Feb 30).
func (p LayoutParser) Parse(s string) (time.Time, bool) {
	t, err := time.Parse(p.Layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// dottedDMY is a zero-allocation parser for "02.01.2006".
type dottedDMY struct{}

func (dottedDMY) Name() string { return "02.01.2006" }

func (dottedDMY) Parse(s string) (time.Time, bool) {
	if len(s) != 10 || s[2] != '.' || s[5] != '.' {
		return time.Time{}, false
	}
	d1, d0 := s[0]-'0', s[1]-'0'
	m1, m0 := s[3]-'0', s[4]-'0'
	y3, y2, y1, y0 := s[6]-'0', s[7]-'0', s[8]-'0', s[9]-'0'
	if d1 > 9 || d0 > 9 || m1 > 9 || m0 > 9 || y3 > 9 || y2 > 9 || y1 > 9 || y0 > 9 {
		return time.Time{}, false
	}
	day := int(d1)*10 + int(d0)
	mon := int(m1)*10 + int(m0)
	year := int(y3)*1000 + int(y2)*100 + int(y1)*10 + int(y0)
	if mon < 1 || mon > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31.02 into March; reject instead.
	if t.Day() != day || int(t.Month()) != mon {
		return time.Time{}, false
	}
	return t, true
}

// monthSpelling maps Steam's four-letter "Sept" onto the abbreviation
// time.Parse knows. "September" is untouched.
var monthSpelling = strings.NewReplacer("Sept ", "Sep ", "Sept,", "Sep,", "Sept.", "Sep")

// Dates tries its strategies in order; the first match wins.
type Dates struct {
	parsers []DateParser
}

// NewDates builds a Dates from layouts in priority order. Empty layouts are
// rejected; nil layouts select DefaultDateLayouts.
func NewDates(layouts []string) (Dates, error) {
	if layouts == nil {
		layouts = DefaultDateLayouts
	}
	if len(layouts) == 0 {
		return Dates{}, fmt.Errorf("normalize: no date layouts")
	}
	ps := make([]DateParser, 0, len(layouts))
	for i, l := range layouts {
		l = strings.TrimSpace(l)
		if l == "" {
			return Dates{}, fmt.Errorf("normalize: date layout %d is empty", i)
		}
		if l == "02.01.2006" {
			ps = append(ps, dottedDMY{})
			continue
		}
		ps = append(ps, LayoutParser{Layout: l})
	}
	return Dates{parsers: ps}, nil
}

// WithParsers builds a Dates from explicit strategies.
func WithParsers(ps ...DateParser) Dates {
	return Dates{parsers: append([]DateParser(nil), ps...)}
}

// Names returns the strategy names in priority order.
func (d Dates) Names() []string {
	out := make([]string, len(d.parsers))
	for i, p := range d.parsers {
		out[i] = p.Name()
	}
	return out
}

// Parse cleans s (trim, collapse whitespace, "Sept" to "Sep") and returns
// the first strategy match, or UnparseableDate.
func (d Dates) Parse(s string) Result[time.Time] {
	s = monthSpelling.Replace(textutil.CollapseWhitespace(s))
	if s == "" {
		return fail[time.Time](UnparseableDate)
	}
	for _, p := range d.parsers {
		if t, matched := p.Parse(s); matched {
			return ok(t)
		}
	}
	return fail[time.Time](UnparseableDate)
}

// Date normalizes a raw release-date cell. Steam sometimes nests the string
// as {"date": "...", "coming_soon": false}; that shape is unwrapped here.
func (d Dates) Date(raw any, present bool) Result[time.Time] {
	if !present {
		return fail[time.Time](MissingReleaseDate)
	}
	switch t := raw.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return fail[time.Time](MissingReleaseDate)
		}
		return d.Parse(t)
	case map[string]any:
		s, isStr := t["date"].(string)
		if !isStr {
			return fail[time.Time](UnparseableDate)
		}
		return d.Date(s, true)
	default:
		return fail[time.Time](UnparseableDate)
	}
}

// DateText returns the verbatim release-date string for a raw cell.
func DateText(raw any) string {
	if m, isMap := raw.(map[string]any); isMap {
		if s, isStr := m["date"].(string); isStr {
			return s
		}
	}
	return RawText(raw)
}
