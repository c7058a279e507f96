package normalize

import (
	"encoding/json"
	"sort"
	"strings"

	"steametl/internal/textutil"
)

// audioFootnote starts the trailing legend Steam appends to language lists.
const audioFootnote = "languages with full audio support"

// Languages returns the sorted set of supported languages. Markup, footnote
// markers and the audio legend are removed. Absent or unusable input gives an
// empty, non-nil set.
func Languages(raw any, present bool, delim string) []string {
	if !present {
		return []string{}
	}
	var out []string
	switch t := raw.(type) {
	case string:
		if i := strings.Index(strings.ToLower(t), audioFootnote); i >= 0 {
			t = t[:i]
		}
		t = strings.ReplaceAll(textutil.StripMarkup(t), "*", "")
		out = textutil.SplitClean(t, delim)
	case []any:
		out = textutil.Dedup(stringsOf(t))
	default:
		return []string{}
	}
	sort.Strings(out)
	return out
}

// Genres returns genre tags in source order with duplicates removed. Input is
// a delimited string or a JSON array of strings. The result is never nil.
func Genres(raw any, present bool, delim string) []string {
	if !present {
		return []string{}
	}
	switch t := raw.(type) {
	case string:
		return textutil.SplitClean(t, delim)
	case []any:
		return textutil.Dedup(stringsOf(t))
	default:
		return []string{}
	}
}

// Tags returns user tag names ordered by vote count, highest first, ties by
// name. Steam exports tags as {"Action": 5210, ...}, or [] when a game has
// none; a plain array of names keeps its order.
func Tags(raw any, present bool) []string {
	if !present {
		return []string{}
	}
	switch t := raw.(type) {
	case map[string]any:
		type tv struct {
			name  string
			votes int64
		}
		tags := make([]tv, 0, len(t))
		for k, v := range t {
			n, _ := NonNegative(v)
			tags = append(tags, tv{name: k, votes: n})
		}
		sort.Slice(tags, func(i, j int) bool {
			if tags[i].votes != tags[j].votes {
				return tags[i].votes > tags[j].votes
			}
			return tags[i].name < tags[j].name
		})
		names := make([]string, len(tags))
		for i, x := range tags {
			names[i] = x.name
		}
		return textutil.Dedup(names)
	case []any:
		return textutil.Dedup(stringsOf(t))
	default:
		return []string{}
	}
}

func stringsOf(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case json.Number:
			out = append(out, s.String())
		}
	}
	return out
}
