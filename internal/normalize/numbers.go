package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Integer coerces v to an int64. Accepted: json.Number, Go integer and float
// kinds holding a whole number, and strings holding an optionally signed
// integer or a whole float ("42.0"). Thousands separators are not accepted;
// callers that expect them strip them first.
func Integer(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		return parseInt(string(t))
	case string:
		return parseInt(strings.TrimSpace(t))
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return wholeFloat(t)
	case float32:
		return wholeFloat(float64(t))
	default:
		return 0, false
	}
}

// PlainInteger is Integer without the textual float fallback: json.Number
// and strings must hold an optionally signed run of digits. Go float kinds
// holding a whole number are still accepted.
func PlainInteger(v any) (int64, bool) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = string(t)
	case string:
		s = strings.TrimSpace(t)
	default:
		return Integer(v)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// parseInt tries a plain integer first and only falls back to float parsing
// when the text contains a '.' or an exponent.
func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return wholeFloat(f)
		}
	}
	return 0, false
}

func wholeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// NonNegative is Integer restricted to values >= 0.
func NonNegative(v any) (int64, bool) {
	n, ok := Integer(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}
