package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Value is a float reduction. Valid=false means no row contributed: "no
// data", which is neither zero nor an error.
type Value struct {
	V     float64
	Valid bool
}

// Money is a decimal reduction with the same no-data convention as Value.
type Money struct {
	V     decimal.Decimal
	Valid bool
}

// moneyScale is the number of decimal places kept by Mean.
const moneyScale = 4

// Mean of xs.
func Mean(xs []float64) Value {
	if len(xs) == 0 {
		return Value{}
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return Value{V: s / float64(len(xs)), Valid: true}
}

// Median of xs. xs is not modified.
func Median(xs []float64) Value {
	if len(xs) == 0 {
		return Value{}
	}
	c := append([]float64(nil), xs...)
	sort.Float64s(c)
	mid := len(c) / 2
	if len(c)%2 == 1 {
		return Value{V: c[mid], Valid: true}
	}
	return Value{V: (c[mid-1] + c[mid]) / 2, Valid: true}
}

// Ratio is num/den, or no data when den is zero.
func Ratio(num, den int64) Value {
	if den == 0 {
		return Value{}
	}
	return Value{V: float64(num) / float64(den), Valid: true}
}

// SumMoney of xs. An empty input is no data, not zero.
func SumMoney(xs []decimal.Decimal) Money {
	if len(xs) == 0 {
		return Money{}
	}
	return Money{V: decimal.Sum(xs[0], xs[1:]...), Valid: true}
}

// MeanMoney of xs rounded to four places.
func MeanMoney(xs []decimal.Decimal) Money {
	if len(xs) == 0 {
		return Money{}
	}
	sum := decimal.Sum(xs[0], xs[1:]...)
	return Money{V: sum.DivRound(decimal.NewFromInt(int64(len(xs))), moneyScale), Valid: true}
}

// MedianMoney of xs. The even-length midpoint is exact.
func MedianMoney(xs []decimal.Decimal) Money {
	if len(xs) == 0 {
		return Money{}
	}
	c := append([]decimal.Decimal(nil), xs...)
	sort.Slice(c, func(i, j int) bool { return c[i].LessThan(c[j]) })
	mid := len(c) / 2
	if len(c)%2 == 1 {
		return Money{V: c[mid], Valid: true}
	}
	return Money{V: c[mid-1].Add(c[mid]).Div(decimal.NewFromInt(2)), Valid: true}
}
