package table

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steametl/internal/aggregate"
	"steametl/internal/catalog"
	"steametl/internal/explode"
)

func sampleGames() []catalog.Game {
	app := int64(10)
	price := decimal.New(699, -2)
	raw := int64(699)
	ratio := 0.8
	y, m := 2021, 3
	d := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	return []catalog.Game{
		{
			ID: "10", AppID: &app, Name: "A", PlatformWindows: true, PlatformProfile: "windows",
			PriceRaw: &raw, PriceNormalized: &price, ReleaseDateRaw: "Mar 4, 2021", ReleaseDate: &d,
			ReleaseYear: &y, ReleaseMonth: &m, CovidPeriod: catalog.PeriodCovid,
			PositiveReviews: 80, NegativeReviews: 20, TotalReviews: 100, PositiveRatio: &ratio,
			SupportedLanguages: []string{"English"}, LanguageCount: 1,
			Genres: []string{"Action", "RPG"}, Tags: []string{},
		},
		{
			ID: "20", PlatformProfile: "none", CovidPeriod: catalog.PeriodUnknown,
			SupportedLanguages: []string{}, Genres: []string{}, Tags: []string{},
			Defects: []catalog.Defect{{Field: "price_raw", Reason: "missing_price"}},
		},
	}
}

func TestGames_ShapeAndTypes(t *testing.T) {
	tbl := Games(sampleGames())
	require.NoError(t, tbl.Validate())
	assert.Len(t, tbl.Rows, 2)
	assert.Equal(t, "games", tbl.Name)

	names := tbl.ColumnNames()
	assert.Equal(t, "id", names[0])
	assert.Contains(t, names, "price_raw")
	assert.Contains(t, names, "price_normalized")
	assert.Contains(t, names, "covid_period")

	row := tbl.Rows[1]
	assert.Nil(t, row[indexOf(names, "price_normalized")])
	assert.Nil(t, row[indexOf(names, "release_year")])
	assert.Equal(t, int64(1), row[indexOf(names, "defect_count")])
}

func TestGenreRows(t *testing.T) {
	games := sampleGames()
	tbl := GenreRows(explode.Collect(games))
	require.NoError(t, tbl.Validate())
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Action", tbl.Rows[0][2])
	assert.Equal(t, 0.8, tbl.Rows[1][indexOf(tbl.ColumnNames(), "positive_ratio")])
}

func TestSummary_NoDataIsNull(t *testing.T) {
	s := aggregate.GroupBy("by_platform", aggregate.Platform, aggregate.GamesSeq(sampleGames()))
	tbl := Summary(s)
	require.NoError(t, tbl.Validate())

	names := tbl.ColumnNames()
	assert.Equal(t, "platform", names[0])
	for _, row := range tbl.Rows {
		if row[0] == "none" {
			assert.Nil(t, row[indexOf(names, "price_mean")])
			assert.Nil(t, row[indexOf(names, "positive_rate")])
			assert.Nil(t, row[indexOf(names, "discount_mean")])
			assert.Equal(t, int64(0), row[indexOf(names, "discount_count")])
			assert.Equal(t, 0.0, row[indexOf(names, "discounted_pct")])
			assert.Equal(t, int64(1), row[indexOf(names, "count")])
		}
		if row[0] == "windows" {
			assert.Equal(t, 0.8, row[indexOf(names, "median_positive_ratio")])
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	tbl := Table{Name: "x", Columns: []Column{{Name: "a", Type: Int}}, Rows: [][]any{{"nope"}}}
	assert.Error(t, tbl.Validate())

	tbl.Rows = [][]any{{nil}}
	assert.Error(t, tbl.Validate())

	tbl.Rows = [][]any{{int64(1), int64(2)}}
	assert.Error(t, tbl.Validate())
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "6.99", FormatCell(decimal.New(699, -2)))
	assert.Equal(t, "0.8", FormatCell(0.8))
	assert.Equal(t, "-5", FormatCell(int64(-5)))
	assert.Equal(t, "2021-03-04", FormatCell(time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, `["Action","RPG"]`, FormatCell([]string{"Action", "RPG"}))
	assert.Equal(t, "[]", FormatCell([]string{}))
	assert.Equal(t, "true", FormatCell(true))
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}
