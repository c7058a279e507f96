package derive

import (
	"fmt"
	"strconv"
	"strings"

	"steametl/internal/catalog"
)

// YearMonth is a calendar month. It orders as Year*12+Month.
type YearMonth struct {
	Year  int
	Month int
}

func (ym YearMonth) ord() int { return ym.Year*12 + ym.Month }

func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month) }

// ParseYearMonth reads "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	y, m, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		return YearMonth{}, fmt.Errorf("year-month %q: want YYYY-MM", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil || len(y) != 4 {
		return YearMonth{}, fmt.Errorf("year-month %q: bad year", s)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("year-month %q: bad month", s)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// Periods holds the inclusive ends of the pre and covid periods.
type Periods struct {
	PreEnd   YearMonth
	CovidEnd YearMonth
}

// DefaultPeriods: releases through December 2018 are pre, January 2019
// through December 2021 covid, anything later post.
func DefaultPeriods() Periods {
	return Periods{
		PreEnd:   YearMonth{Year: 2018, Month: 12},
		CovidEnd: YearMonth{Year: 2021, Month: 12},
	}
}

// Validate checks month ranges and that PreEnd precedes CovidEnd.
func (p Periods) Validate() error {
	for _, ym := range []YearMonth{p.PreEnd, p.CovidEnd} {
		if ym.Month < 1 || ym.Month > 12 {
			return fmt.Errorf("periods: month out of range in %s", ym)
		}
	}
	if p.PreEnd.ord() >= p.CovidEnd.ord() {
		return fmt.Errorf("periods: pre_end %s must precede covid_end %s", p.PreEnd, p.CovidEnd)
	}
	return nil
}

// Classify buckets a release year/month. Both must be present.
func (p Periods) Classify(year, month *int) catalog.CovidPeriod {
	if year == nil || month == nil {
		return catalog.PeriodUnknown
	}
	ym := YearMonth{Year: *year, Month: *month}.ord()
	switch {
	case ym <= p.PreEnd.ord():
		return catalog.PeriodPre
	case ym <= p.CovidEnd.ord():
		return catalog.PeriodCovid
	default:
		return catalog.PeriodPost
	}
}
