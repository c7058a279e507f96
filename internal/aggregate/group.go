// Package aggregate groups games or genre rows and reduces each group to
// summary metrics. It holds no state between calls: every Table is
// recomputed from its inputs.
package aggregate

import (
	"iter"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"steametl/internal/catalog"
)

// Metrics is the reduction of one group.
type Metrics struct {
	Count int // contributing rows
	Games int // distinct games
	// Share is Count as a percentage of all input rows of the grouping.
	Share Value

	PriceCount  int
	PriceMean   Money
	PriceMedian Money
	PriceSum    Money

	MeanPositiveRatio   Value
	MedianPositiveRatio Value

	// DiscountCount is the rows with a known discount; absent discounts are
	// left out of the mean, not counted as zero.
	DiscountCount int
	DiscountMean  Value
	// DiscountedShare is the percentage of the group's rows on promotion
	// (discount > 0).
	DiscountedShare Value

	SumPositive     int64
	SumNegative     int64
	SumTotalReviews int64
	// PositiveRate is SumPositive / SumTotalReviews for the group.
	PositiveRate Value
}

// Row is one group.
type Row struct {
	Key     []string
	Metrics Metrics
}

// Table is one summary table.
type Table struct {
	Name string
	Keys []string
	Rows []Row
}

// Total sums Count over all rows.
func (t Table) Total() int {
	n := 0
	for _, r := range t.Rows {
		n += r.Metrics.Count
	}
	return n
}

// Find returns the row with the given key.
func (t Table) Find(key ...string) (Row, bool) {
	for _, r := range t.Rows {
		if slices.Equal(r.Key, key) {
			return r, true
		}
	}
	return Row{}, false
}

type acc struct {
	key    []string
	count  int
	games  map[string]struct{}
	prices []decimal.Decimal
	ratios []float64
	pos    int64
	neg    int64

	discounts  []float64
	discounted int
}

func (a *acc) add(g *catalog.Game) {
	a.count++
	a.games[g.Key()] = struct{}{}
	if g.PriceNormalized != nil {
		a.prices = append(a.prices, *g.PriceNormalized)
	}
	if g.PositiveRatio != nil {
		a.ratios = append(a.ratios, *g.PositiveRatio)
	}
	if g.Discount != nil {
		a.discounts = append(a.discounts, float64(*g.Discount))
		if *g.Discount > 0 {
			a.discounted++
		}
	}
	a.pos = catalog.AddCounts(a.pos, g.PositiveReviews)
	a.neg = catalog.AddCounts(a.neg, g.NegativeReviews)
}

func (a *acc) metrics(denom int) Metrics {
	total := catalog.AddCounts(a.pos, a.neg)
	return Metrics{
		Count:             a.count,
		Games:             len(a.games),
		Share:             percent(a.count, denom),
		PriceCount:        len(a.prices),
		PriceMean:         MeanMoney(a.prices),
		PriceMedian:       MedianMoney(a.prices),
		PriceSum:          SumMoney(a.prices),
		MeanPositiveRatio:   Mean(a.ratios),
		MedianPositiveRatio: Median(a.ratios),
		DiscountCount:       len(a.discounts),
		DiscountMean:        Mean(a.discounts),
		DiscountedShare:     percent(a.discounted, a.count),
		SumPositive:         a.pos,
		SumNegative:         a.neg,
		SumTotalReviews:     total,
		PositiveRate:        Ratio(a.pos, total),
	}
}

func percent(n, of int) Value {
	if of == 0 {
		return Value{}
	}
	return Value{V: float64(n) * 100 / float64(of), Valid: true}
}

// GroupBy reduces rows under dim. Rows for which dim yields no key are
// skipped. Result rows are ordered by key, numeric parts compared as numbers.
func GroupBy(name string, dim Dimension, rows iter.Seq[catalog.GenreRow]) Table {
	groups := make(map[string]*acc)
	seen := 0
	for r := range rows {
		seen++
		key, ok := dim.Key(r)
		if !ok {
			continue
		}
		id := strings.Join(key, "\x1f")
		a := groups[id]
		if a == nil {
			a = &acc{key: key, games: make(map[string]struct{})}
			groups[id] = a
		}
		a.add(r.Game)
	}

	t := Table{Name: name, Keys: append([]string(nil), dim.Keys...), Rows: make([]Row, 0, len(groups))}
	for _, a := range groups {
		t.Rows = append(t.Rows, Row{Key: a.key, Metrics: a.metrics(seen)})
	}
	sort.Slice(t.Rows, func(i, j int) bool { return lessKey(t.Rows[i].Key, t.Rows[j].Key) })
	return t
}

// GamesSeq presents games as base-table rows (empty Genre).
func GamesSeq(games []catalog.Game) iter.Seq[catalog.GenreRow] {
	return func(yield func(catalog.GenreRow) bool) {
		for i := range games {
			if !yield(catalog.GenreRow{Game: &games[i]}) {
				return
			}
		}
	}
}

// RowsSeq presents an already exploded table.
func RowsSeq(rows []catalog.GenreRow) iter.Seq[catalog.GenreRow] {
	return func(yield func(catalog.GenreRow) bool) {
		for _, r := range rows {
			if !yield(r) {
				return
			}
		}
	}
}

func lessKey(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		ai, aerr := strconv.Atoi(a[i])
		bi, berr := strconv.Atoi(b[i])
		if aerr == nil && berr == nil {
			return ai < bi
		}
		return a[i] < b[i]
	}
	return len(a) < len(b)
}
