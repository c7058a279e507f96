package table

import "steametl/internal/catalog"

// Artifact names.
const (
	GamesName      = "games"
	GameGenresName = "game_genres"
)

// GameColumns is the cleaned games table layout.
var GameColumns = []Column{
	{Name: "id", Type: Text},
	{Name: "app_id", Type: Int, Nullable: true},
	{Name: "name", Type: Text, Nullable: true},
	{Name: "developer", Type: Text, Nullable: true},
	{Name: "publisher", Type: Text, Nullable: true},
	{Name: "type", Type: Text, Nullable: true},
	{Name: "platform_windows", Type: Bool},
	{Name: "platform_mac", Type: Bool},
	{Name: "platform_linux", Type: Bool},
	{Name: "platform_profile", Type: Text},
	{Name: "price_raw", Type: Int, Nullable: true},
	{Name: "price_normalized", Type: Decimal, Nullable: true},
	{Name: "initial_price_raw", Type: Int, Nullable: true},
	{Name: "initial_price_normalized", Type: Decimal, Nullable: true},
	{Name: "discount", Type: Int, Nullable: true},
	{Name: "release_date_raw", Type: Text, Nullable: true},
	{Name: "release_date", Type: Date, Nullable: true},
	{Name: "release_year", Type: Int, Nullable: true},
	{Name: "release_month", Type: Int, Nullable: true},
	{Name: "covid_period", Type: Text},
	{Name: "positive_reviews", Type: Int},
	{Name: "negative_reviews", Type: Int},
	{Name: "total_reviews", Type: Int},
	{Name: "positive_ratio", Type: Float, Nullable: true},
	{Name: "supported_languages", Type: TextList},
	{Name: "language_count", Type: Int},
	{Name: "required_age", Type: Int, Nullable: true},
	{Name: "owners_low", Type: Int, Nullable: true},
	{Name: "owners_high", Type: Int, Nullable: true},
	{Name: "ccu", Type: Int, Nullable: true},
	{Name: "genres", Type: TextList},
	{Name: "tags", Type: TextList},
	{Name: "defect_count", Type: Int},
}

// Games renders the cleaned games table.
func Games(games []catalog.Game) Table {
	t := Table{Name: GamesName, Columns: GameColumns, Rows: make([][]any, 0, len(games))}
	for i := range games {
		t.Rows = append(t.Rows, gameRow(&games[i]))
	}
	return t
}

func gameRow(g *catalog.Game) []any {
	return []any{
		g.ID,
		int64Ptr(g.AppID),
		text(g.Name),
		text(g.Developer),
		text(g.Publisher),
		text(g.Type),
		g.PlatformWindows,
		g.PlatformMac,
		g.PlatformLinux,
		g.PlatformProfile,
		int64Ptr(g.PriceRaw),
		decimalPtr(g.PriceNormalized),
		int64Ptr(g.InitialPriceRaw),
		decimalPtr(g.InitialPriceNormalized),
		intPtr(g.Discount),
		text(g.ReleaseDateRaw),
		datePtr(g.ReleaseDate),
		intPtr(g.ReleaseYear),
		intPtr(g.ReleaseMonth),
		string(g.CovidPeriod),
		g.PositiveReviews,
		g.NegativeReviews,
		g.TotalReviews,
		floatPtr(g.PositiveRatio),
		g.SupportedLanguages,
		int64(g.LanguageCount),
		intPtr(g.RequiredAge),
		int64Ptr(g.OwnersLow),
		int64Ptr(g.OwnersHigh),
		int64Ptr(g.CCU),
		g.Genres,
		g.Tags,
		int64(len(g.Defects)),
	}
}

// GenreColumns is the exploded genre table layout: the genre plus the game
// columns used for cross analysis.
var GenreColumns = []Column{
	{Name: "id", Type: Text},
	{Name: "app_id", Type: Int, Nullable: true},
	{Name: "genre", Type: Text},
	{Name: "name", Type: Text, Nullable: true},
	{Name: "publisher", Type: Text, Nullable: true},
	{Name: "platform_profile", Type: Text},
	{Name: "price_normalized", Type: Decimal, Nullable: true},
	{Name: "release_year", Type: Int, Nullable: true},
	{Name: "covid_period", Type: Text},
	{Name: "positive_reviews", Type: Int},
	{Name: "negative_reviews", Type: Int},
	{Name: "total_reviews", Type: Int},
	{Name: "positive_ratio", Type: Float, Nullable: true},
	{Name: "language_count", Type: Int},
}

// GenreRows renders the exploded genre table.
func GenreRows(rows []catalog.GenreRow) Table {
	t := Table{Name: GameGenresName, Columns: GenreColumns, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		g := r.Game
		t.Rows = append(t.Rows, []any{
			g.ID,
			int64Ptr(g.AppID),
			r.Genre,
			text(g.Name),
			text(g.Publisher),
			g.PlatformProfile,
			decimalPtr(g.PriceNormalized),
			intPtr(g.ReleaseYear),
			string(g.CovidPeriod),
			g.PositiveReviews,
			g.NegativeReviews,
			g.TotalReviews,
			floatPtr(g.PositiveRatio),
			int64(g.LanguageCount),
		})
	}
	return t
}
