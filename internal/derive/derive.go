// Package derive computes the feature columns of a catalog.Game from
// normalized fields. Every derivation reads normalized inputs only; the two
// chained ones are total_reviews -> positive_ratio and release date ->
// covid_period.
package derive

import (
	"strings"

	"steametl/internal/catalog"
	"steametl/internal/normalize"
)

// Deriver is immutable and safe for concurrent use.
type Deriver struct {
	periods Periods
}

// New returns a Deriver for the given period boundaries.
func New(p Periods) (*Deriver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{periods: p}, nil
}

// Periods returns the configured boundaries.
func (d *Deriver) Periods() Periods { return d.periods }

// Derive assembles the final row.
func (d *Deriver) Derive(f normalize.Fields) catalog.Game {
	g := catalog.Game{
		ID:        f.ID,
		AppID:     f.AppID.Ptr(),
		Name:      f.Name,
		Developer: f.Developer,
		Publisher: f.Publisher,
		Type:      f.Type,

		PlatformWindows: f.Windows.Value,
		PlatformMac:     f.Mac.Value,
		PlatformLinux:   f.Linux.Value,

		PriceRaw:               f.Price.Raw,
		PriceNormalized:        f.Price.Normalized.Ptr(),
		InitialPriceRaw:        f.InitialPrice.Raw,
		InitialPriceNormalized: f.InitialPrice.Normalized.Ptr(),
		Discount:               f.Discount.Ptr(),

		ReleaseDateRaw: f.ReleaseDateRaw,
		ReleaseDate:    f.ReleaseDate.Ptr(),

		PositiveReviews: f.Positive.Value,
		NegativeReviews: f.Negative.Value,

		SupportedLanguages: nonNil(f.Languages),
		Genres:             nonNil(f.Genres),
		Tags:               nonNil(f.Tags),

		RequiredAge: f.RequiredAge.Ptr(),
		CCU:         f.CCU.Ptr(),
		Defects:     f.Defects,
	}
	if f.Owners.OK {
		lo, hi := f.Owners.Value.Low, f.Owners.Value.High
		g.OwnersLow, g.OwnersHigh = &lo, &hi
	}

	g.PlatformProfile = PlatformProfile(g.PlatformWindows, g.PlatformMac, g.PlatformLinux)
	g.TotalReviews, g.PositiveRatio = Reviews(g.PositiveReviews, g.NegativeReviews)
	g.LanguageCount = len(g.SupportedLanguages)

	if g.ReleaseDate != nil {
		y, m := g.ReleaseDate.Year(), int(g.ReleaseDate.Month())
		g.ReleaseYear, g.ReleaseMonth = &y, &m
	}
	g.CovidPeriod = d.periods.Classify(g.ReleaseYear, g.ReleaseMonth)
	return g
}

// Reviews returns pos+neg and, when that is positive, pos/(pos+neg). The
// total saturates at math.MaxInt64.
func Reviews(pos, neg int64) (int64, *float64) {
	total := catalog.AddCounts(pos, neg)
	if total <= 0 {
		return total, nil
	}
	r := float64(pos) / float64(total)
	return total, &r
}

// PlatformProfile joins supported platforms in windows, mac, linux order with
// "+", or returns "none".
func PlatformProfile(windows, mac, linux bool) string {
	parts := make([]string, 0, 3)
	if windows {
		parts = append(parts, string(catalog.Windows))
	}
	if mac {
		parts = append(parts, string(catalog.Mac))
	}
	if linux {
		parts = append(parts, string(catalog.Linux))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
