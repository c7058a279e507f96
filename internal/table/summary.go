package table

import "steametl/internal/aggregate"

// summaryMetrics are appended after the key columns of every summary.
var summaryMetrics = []Column{
	{Name: "count", Type: Int},
	{Name: "games", Type: Int},
	{Name: "share_pct", Type: Float, Nullable: true},
	{Name: "price_count", Type: Int},
	{Name: "price_mean", Type: Decimal, Nullable: true},
	{Name: "price_median", Type: Decimal, Nullable: true},
	{Name: "price_sum", Type: Decimal, Nullable: true},
	{Name: "mean_positive_ratio", Type: Float, Nullable: true},
	{Name: "median_positive_ratio", Type: Float, Nullable: true},
	{Name: "discount_count", Type: Int},
	{Name: "discount_mean", Type: Float, Nullable: true},
	{Name: "discounted_pct", Type: Float, Nullable: true},
	{Name: "sum_positive", Type: Int},
	{Name: "sum_negative", Type: Int},
	{Name: "total_reviews", Type: Int},
	{Name: "positive_rate", Type: Float, Nullable: true},
}

// Summary renders an aggregate table. Key columns are text; a no-data
// metric becomes null.
func Summary(s aggregate.Table) Table {
	cols := make([]Column, 0, len(s.Keys)+len(summaryMetrics))
	for _, k := range s.Keys {
		cols = append(cols, Column{Name: k, Type: Text})
	}
	cols = append(cols, summaryMetrics...)

	t := Table{Name: s.Name, Columns: cols, Rows: make([][]any, 0, len(s.Rows))}
	for _, r := range s.Rows {
		row := make([]any, 0, len(cols))
		for _, k := range r.Key {
			row = append(row, k)
		}
		m := r.Metrics
		row = append(row,
			int64(m.Count),
			int64(m.Games),
			value(m.Share),
			int64(m.PriceCount),
			money(m.PriceMean),
			money(m.PriceMedian),
			money(m.PriceSum),
			value(m.MeanPositiveRatio),
			value(m.MedianPositiveRatio),
			int64(m.DiscountCount),
			value(m.DiscountMean),
			value(m.DiscountedShare),
			m.SumPositive,
			m.SumNegative,
			m.SumTotalReviews,
			value(m.PositiveRate),
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Summaries renders every aggregate table in order.
func Summaries(in []aggregate.Table) []Table {
	out := make([]Table, len(in))
	for i, s := range in {
		out[i] = Summary(s)
	}
	return out
}

func value(v aggregate.Value) any {
	if !v.Valid {
		return nil
	}
	return v.V
}

func money(m aggregate.Money) any {
	if !m.Valid {
		return nil
	}
	return m.V
}
