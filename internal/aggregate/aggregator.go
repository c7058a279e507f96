package aggregate

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"golang.org/x/sync/errgroup"

	"steametl/internal/catalog"
)

// Summary table names.
const (
	ByPlatform         = "by_platform"
	ByGenre            = "by_genre"
	ByYear             = "by_year"
	ByPlatformGenre    = "by_platform_genre"
	ByCovidPeriod      = "by_covid_period"
	TopPublishers      = "top_publishers"
	ByLanguageCount    = "by_language_count"
	ByRequiredAge      = "by_required_age"
	PlatformSupport    = "platform_support"
	GenreOpportunities = "genre_opportunities"
	BlockbusterGenres  = "blockbuster_genres"
)

// TableNames lists every summary in output order.
var TableNames = []string{
	ByPlatform, ByGenre, ByYear, ByPlatformGenre, ByCovidPeriod, TopPublishers,
	ByLanguageCount, ByRequiredAge, PlatformSupport, GenreOpportunities, BlockbusterGenres,
}

// Options tunes the derived summaries. Zero counts and nil rates take the
// defaults below; a rate set to 0 is kept.
type Options struct {
	// Tables restricts output to the named summaries; empty means all.
	Tables []string

	TopPublishers int // default 20

	OpportunityMinReviews int64    // default 10000
	OpportunityMinRate    *float64 // default 0.85

	BlockbusterMinReviews int64    // default 50000
	BlockbusterMinRatio   *float64 // default 0.9

	// Workers bounds concurrent table builds; <= 0 means one per table.
	Workers int
}

func (o Options) withDefaults() Options {
	if o.TopPublishers <= 0 {
		o.TopPublishers = 20
	}
	if o.OpportunityMinReviews <= 0 {
		o.OpportunityMinReviews = 10000
	}
	if o.OpportunityMinRate == nil {
		o.OpportunityMinRate = ptr(0.85)
	}
	if o.BlockbusterMinReviews <= 0 {
		o.BlockbusterMinReviews = 50000
	}
	if o.BlockbusterMinRatio == nil {
		o.BlockbusterMinRatio = ptr(0.9)
	}
	return o
}

func ptr(v float64) *float64 { return &v }

// Aggregator builds the configured summaries.
type Aggregator struct {
	opts   Options
	tables []string
}

// New validates opts.Tables against TableNames.
func New(opts Options) (*Aggregator, error) {
	opts = opts.withDefaults()
	known := make(map[string]bool, len(TableNames))
	for _, n := range TableNames {
		known[n] = true
	}
	tables := TableNames
	if len(opts.Tables) > 0 {
		tables = make([]string, 0, len(opts.Tables))
		for _, n := range opts.Tables {
			if !known[n] {
				return nil, fmt.Errorf("aggregate: unknown summary table %q", n)
			}
			tables = append(tables, n)
		}
	}
	return &Aggregator{opts: opts, tables: tables}, nil
}

// Tables returns the summary names this Aggregator produces, in order.
func (a *Aggregator) Tables() []string { return append([]string(nil), a.tables...) }

// Summaries computes every configured table. games and rows must be
// complete: this is the barrier after which groups are final. Tables are
// built concurrently and returned in configured order.
func (a *Aggregator) Summaries(ctx context.Context, games []catalog.Game, rows []catalog.GenreRow) ([]Table, error) {
	out := make([]Table, len(a.tables))
	g, ctx := errgroup.WithContext(ctx)
	if a.opts.Workers > 0 {
		g.SetLimit(a.opts.Workers)
	}
	for i, name := range a.tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := a.build(name, games, rows)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Aggregator) build(name string, games []catalog.Game, rows []catalog.GenreRow) (Table, error) {
	switch name {
	case ByPlatform:
		return GroupBy(name, Platform, GamesSeq(games)), nil
	case ByGenre:
		return GroupBy(name, Genre, RowsSeq(rows)), nil
	case ByYear:
		return GroupBy(name, ReleaseYear, GamesSeq(games)), nil
	case ByPlatformGenre:
		return GroupBy(name, PlatformGenre, RowsSeq(rows)), nil
	case ByCovidPeriod:
		return GroupBy(name, CovidPeriod, GamesSeq(games)), nil
	case ByLanguageCount:
		return GroupBy(name, LanguageCount, GamesSeq(games)), nil
	case ByRequiredAge:
		return GroupBy(name, RequiredAge, GamesSeq(games)), nil
	case TopPublishers:
		return a.topPublishers(games), nil
	case PlatformSupport:
		return platformSupport(games), nil
	case GenreOpportunities:
		return a.genreOpportunities(rows), nil
	case BlockbusterGenres:
		return a.blockbusterGenres(rows), nil
	default:
		return Table{}, fmt.Errorf("aggregate: unknown summary table %q", name)
	}
}

func (a *Aggregator) topPublishers(games []catalog.Game) Table {
	t := GroupBy(TopPublishers, Publisher, GamesSeq(games))
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if t.Rows[i].Metrics.Games != t.Rows[j].Metrics.Games {
			return t.Rows[i].Metrics.Games > t.Rows[j].Metrics.Games
		}
		return t.Rows[i].Key[0] < t.Rows[j].Key[0]
	})
	if len(t.Rows) > a.opts.TopPublishers {
		t.Rows = t.Rows[:a.opts.TopPublishers]
	}
	return t
}

// platformSupport counts each game once per platform it ships on. Share is
// relative to all games, so shares do not sum to 100.
func platformSupport(games []catalog.Game) Table {
	seq := func(yield func(catalog.GenreRow) bool) {
		for i := range games {
			for _, p := range catalog.Platforms {
				if !games[i].Supports(p) {
					continue
				}
				if !yield(catalog.GenreRow{Genre: string(p), Game: &games[i]}) {
					return
				}
			}
		}
	}
	dim := Dimension{Name: "platform", Keys: []string{"platform"}, Key: Genre.Key}
	t := GroupBy(PlatformSupport, dim, seq)
	for i := range t.Rows {
		t.Rows[i].Metrics.Share = percent(t.Rows[i].Metrics.Count, len(games))
	}
	return t
}

// genreOpportunities keeps genres with enough reviews and a high group
// positive rate, best rate first.
func (a *Aggregator) genreOpportunities(rows []catalog.GenreRow) Table {
	all := GroupBy(GenreOpportunities, Genre, RowsSeq(rows))
	t := Table{Name: all.Name, Keys: all.Keys, Rows: make([]Row, 0, len(all.Rows))}
	for _, r := range all.Rows {
		m := r.Metrics
		if m.SumTotalReviews >= a.opts.OpportunityMinReviews && m.PositiveRate.Valid && m.PositiveRate.V >= *a.opts.OpportunityMinRate {
			t.Rows = append(t.Rows, r)
		}
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Metrics.PositiveRate.V > t.Rows[j].Metrics.PositiveRate.V
	})
	return t
}

// blockbusterGenres groups, by genre, the paid games with more than the
// configured number of reviews and a ratio above the threshold.
func (a *Aggregator) blockbusterGenres(rows []catalog.GenreRow) Table {
	t := GroupBy(BlockbusterGenres, Genre, filter(RowsSeq(rows), func(r catalog.GenreRow) bool {
		g := r.Game
		return g.TotalReviews > a.opts.BlockbusterMinReviews &&
			g.PositiveRatio != nil && *g.PositiveRatio > *a.opts.BlockbusterMinRatio &&
			g.PriceNormalized != nil && g.PriceNormalized.IsPositive()
	}))
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Metrics.Count > t.Rows[j].Metrics.Count
	})
	return t
}

func filter(seq iter.Seq[catalog.GenreRow], keep func(catalog.GenreRow) bool) iter.Seq[catalog.GenreRow] {
	return func(yield func(catalog.GenreRow) bool) {
		for r := range seq {
			if keep(r) && !yield(r) {
				return
			}
		}
	}
}
