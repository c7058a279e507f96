package normalize

import "github.com/shopspring/decimal"

// DefaultMaxPriceCents bounds a plausible catalog price (1,000,000.00).
const DefaultMaxPriceCents int64 = 100_000_000

// PriceResult keeps the verbatim raw integer apart from the derived decimal.
type PriceResult struct {
	// Raw is the source integer exactly as given, negative values included.
	// Nil when the source was absent or not an integer.
	Raw *int64
	// RawText is the textual source value, kept for defect reporting.
	RawText string
	// Normalized is Raw/100 in currency units.
	Normalized Result[decimal.Decimal]
}

// Price interprets raw as an amount in the smallest currency unit. The
// normalized value is set only for 0 <= raw <= maxCents. A maxCents <= 0
// selects DefaultMaxPriceCents.
func Price(raw any, present bool, maxCents int64) PriceResult {
	if maxCents <= 0 {
		maxCents = DefaultMaxPriceCents
	}
	if !present {
		return PriceResult{Normalized: fail[decimal.Decimal](MissingPrice)}
	}
	res := PriceResult{RawText: RawText(raw)}
	cents, isInt := PlainInteger(raw)
	if !isInt {
		res.Normalized = fail[decimal.Decimal](InvalidPrice)
		return res
	}
	res.Raw = &cents
	if cents < 0 || cents > maxCents {
		res.Normalized = fail[decimal.Decimal](InvalidPrice)
		return res
	}
	res.Normalized = ok(decimal.New(cents, -2))
	return res
}
