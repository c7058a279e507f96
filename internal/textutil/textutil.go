// Package textutil holds small text cleanup primitives shared by the field
// normalizers: markup stripping, whitespace collapsing and Unicode
// canonicalization.
//
// None of these attempt real HTML parsing. Steam language lists carry a
// handful of <strong>, <br> and [b] fragments and that is all we handle.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripMarkup removes <...> and [...] sequences from s. An unterminated
// opener drops the rest of the string.
func StripMarkup(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	var closer rune
	for _, r := range s {
		switch {
		case closer != 0:
			if r == closer {
				closer = 0
			}
		case r == '<':
			closer = '>'
		case r == '[':
			closer = ']'
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseWhitespace replaces runs of Unicode whitespace with one ASCII space
// and trims both ends.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
			continue
		}
		b.WriteRune(r)
		seenSpace = false
	}
	return strings.TrimSpace(b.String())
}

// Canonical returns s in NFC with whitespace collapsed. Two tokens that render
// identically compare equal after Canonical.
func Canonical(s string) string {
	return CollapseWhitespace(norm.NFC.String(s))
}

// Fold returns a comparison key for s: canonical, lower-cased and with
// combining marks removed. It is only used for equality, never for output.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(Canonical(s)))
	if err != nil {
		return strings.ToLower(Canonical(s))
	}
	return out
}

// SplitClean splits s on sep, canonicalizes every token and drops empty ones.
// Tokens equal under Fold are kept once, first spelling wins. Order of first
// occurrence is preserved.
func SplitClean(s, sep string) []string {
	if sep == "" {
		sep = ","
	}
	return Dedup(strings.Split(s, sep))
}

// Dedup canonicalizes tokens, drops empty ones and removes Fold-equal
// duplicates while keeping first-occurrence order. The result is never nil.
func Dedup(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		c := Canonical(tok)
		if c == "" {
			continue
		}
		k := Fold(c)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
