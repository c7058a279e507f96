package normalize

import (
	"encoding/json"
	"strings"
	"unicode"

	"steametl/internal/textutil"
)

// MaxReviews is the largest review count accepted from the source.
const MaxReviews = 1 << 40

// Reviews coerces a review count. Negative, non-numeric or implausibly large
// input becomes 0 with InvalidReviews; absence becomes 0 with MissingReviews.
// Value is always usable, OK tells whether it came from the source.
func Reviews(raw any, present bool) Result[int64] {
	if !present {
		return fail[int64](MissingReviews)
	}
	n, valid := NonNegative(raw)
	if !valid || n > MaxReviews {
		return fail[int64](InvalidReviews)
	}
	return ok(n)
}

// Bool reads a platform flag. Absent means unsupported with no defect;
// an unrecognized value means unsupported with InvalidPlatform.
func Bool(raw any, present bool) Result[bool] {
	if !present {
		return Result[bool]{}
	}
	switch t := raw.(type) {
	case bool:
		return ok(t)
	case json.Number:
		switch t.String() {
		case "1":
			return ok(true)
		case "0":
			return ok(false)
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "t", "true", "yes", "y":
			return ok(true)
		case "0", "f", "false", "no", "n":
			return ok(false)
		}
	}
	return fail[bool](InvalidPlatform)
}

// Discount reads a percentage in 0..100.
func Discount(raw any, present bool) Result[int] {
	if !present {
		return Result[int]{}
	}
	n, valid := Integer(raw)
	if !valid || n < 0 || n > 100 {
		return fail[int](InvalidDiscount)
	}
	return ok(int(n))
}

// RequiredAge reads the first run of digits in raw ("18", 18, "17+").
func RequiredAge(raw any, present bool) Result[int] {
	if !present {
		return Result[int]{}
	}
	if n, valid := Integer(raw); valid {
		if n < 0 || n > 99 {
			return fail[int](InvalidAge)
		}
		return ok(int(n))
	}
	s, isStr := raw.(string)
	if !isStr {
		return fail[int](InvalidAge)
	}
	n, found := firstDigits(s)
	if !found || n > 99 {
		return fail[int](InvalidAge)
	}
	return ok(int(n))
}

func firstDigits(s string) (int64, bool) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return parseInt(s[start:end])
}

// Range is an inclusive integer interval.
type Range struct {
	Low, High int64
}

// Owners parses SteamSpy owner estimates of the form "20,000 .. 50,000".
func Owners(raw any, present bool) Result[Range] {
	if !present {
		return Result[Range]{}
	}
	s, isStr := raw.(string)
	if !isStr {
		return fail[Range](InvalidOwners)
	}
	lo, hi, found := strings.Cut(s, "..")
	if !found {
		return fail[Range](InvalidOwners)
	}
	low, okLow := NonNegative(strings.ReplaceAll(strings.TrimSpace(lo), ",", ""))
	high, okHigh := NonNegative(strings.ReplaceAll(strings.TrimSpace(hi), ",", ""))
	if !okLow || !okHigh || low > high {
		return fail[Range](InvalidOwners)
	}
	return ok(Range{Low: low, High: high})
}

// Count reads a non-negative integer such as concurrent users.
func Count(raw any, present bool) Result[int64] {
	if !present {
		return Result[int64]{}
	}
	n, valid := NonNegative(raw)
	if !valid {
		return fail[int64](InvalidCount)
	}
	return ok(n)
}

// Text returns a canonical display string. Numbers are rendered; anything
// else non-textual gives "".
func Text(raw any, present bool) string {
	if !present {
		return ""
	}
	switch t := raw.(type) {
	case string:
		return textutil.Canonical(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
