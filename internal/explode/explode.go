// Package explode expands games into one row per genre.
package explode

import (
	"iter"

	"steametl/internal/catalog"
)

// Genres yields one GenreRow per genre of g, in order. A game without genres
// yields nothing; no placeholder genre is invented.
func Genres(g *catalog.Game) iter.Seq[catalog.GenreRow] {
	return func(yield func(catalog.GenreRow) bool) {
		if g == nil {
			return
		}
		for _, genre := range g.Genres {
			if !yield(catalog.GenreRow{Genre: genre, Game: g}) {
				return
			}
		}
	}
}

// All chains Genres over games.
func All(games []catalog.Game) iter.Seq[catalog.GenreRow] {
	return func(yield func(catalog.GenreRow) bool) {
		for i := range games {
			for row := range Genres(&games[i]) {
				if !yield(row) {
					return
				}
			}
		}
	}
}

// Collect materializes All(games).
func Collect(games []catalog.Game) []catalog.GenreRow {
	n := 0
	for i := range games {
		n += len(games[i].Genres)
	}
	out := make([]catalog.GenreRow, 0, n)
	for row := range All(games) {
		out = append(out, row)
	}
	return out
}
