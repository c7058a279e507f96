// Package normalize turns raw, loosely typed cell values into typed values.
//
// Every function here is total: it never panics and never returns an error.
// A value that cannot be normalized comes back as a Result with OK=false and,
// when the failure is a data defect rather than plain absence, a Reason code.
package normalize

import (
	"encoding/json"
	"fmt"
)

// Reason is a machine-readable defect code.
type Reason string

// ReasonNone marks a value that is absent without being defective.
const ReasonNone Reason = ""

const (
	InvalidPrice       Reason = "invalid_price"
	MissingPrice       Reason = "missing_price"
	UnparseableDate    Reason = "unparseable_date"
	MissingReleaseDate Reason = "missing_release_date"
	InvalidReviews     Reason = "invalid_reviews"
	MissingReviews     Reason = "missing_reviews"
	InvalidDiscount    Reason = "invalid_discount"
	InvalidPlatform    Reason = "invalid_platform"
	InvalidAge         Reason = "invalid_age"
	InvalidOwners      Reason = "invalid_owners"
	InvalidCount       Reason = "invalid_count"
)

// Reasons lists every defect code in a stable order.
var Reasons = []Reason{
	InvalidPrice, MissingPrice, UnparseableDate, MissingReleaseDate,
	InvalidReviews, MissingReviews, InvalidDiscount, InvalidPlatform,
	InvalidAge, InvalidOwners, InvalidCount,
}

// Result is a normalized value or an absence with an optional reason.
type Result[T any] struct {
	Value  T
	OK     bool
	Reason Reason
}

// Ptr returns a pointer to Value when OK, else nil.
func (r Result[T]) Ptr() *T {
	if !r.OK {
		return nil
	}
	v := r.Value
	return &v
}

// Defective reports whether the result carries a defect reason.
func (r Result[T]) Defective() bool { return r.Reason != ReasonNone }

func ok[T any](v T) Result[T] { return Result[T]{Value: v, OK: true} }

func fail[T any](reason Reason) Result[T] { return Result[T]{Reason: reason} }

// RawText renders a raw cell value for defect samples.
func RawText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
