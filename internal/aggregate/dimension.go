package aggregate

import (
	"strconv"

	"steametl/internal/catalog"
)

// Dimension maps an input row to its group key. ok=false drops the row from
// this grouping; that is how absent key fields are ignored.
type Dimension struct {
	Name string
	Keys []string
	Key  func(r catalog.GenreRow) (key []string, ok bool)
}

// Base-table dimensions see GenreRow{Game: g} with an empty Genre.
var (
	Platform = Dimension{
		Name: "platform",
		Keys: []string{"platform"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			return []string{r.Game.PlatformProfile}, r.Game.PlatformProfile != ""
		},
	}

	Genre = Dimension{
		Name: "genre",
		Keys: []string{"genre"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			return []string{r.Genre}, r.Genre != ""
		},
	}

	ReleaseYear = Dimension{
		Name: "release_year",
		Keys: []string{"release_year"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			if r.Game.ReleaseYear == nil {
				return nil, false
			}
			return []string{strconv.Itoa(*r.Game.ReleaseYear)}, true
		},
	}

	PlatformGenre = Dimension{
		Name: "platform_genre",
		Keys: []string{"platform", "genre"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			if r.Genre == "" || r.Game.PlatformProfile == "" {
				return nil, false
			}
			return []string{r.Game.PlatformProfile, r.Genre}, true
		},
	}

	CovidPeriod = Dimension{
		Name: "covid_period",
		Keys: []string{"covid_period"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			return []string{string(r.Game.CovidPeriod)}, r.Game.CovidPeriod != ""
		},
	}

	Publisher = Dimension{
		Name: "publisher",
		Keys: []string{"publisher"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			return []string{r.Game.Publisher}, r.Game.Publisher != ""
		},
	}

	LanguageCount = Dimension{
		Name: "language_count",
		Keys: []string{"language_count"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			return []string{strconv.Itoa(r.Game.LanguageCount)}, true
		},
	}

	RequiredAge = Dimension{
		Name: "required_age",
		Keys: []string{"required_age"},
		Key: func(r catalog.GenreRow) ([]string, bool) {
			if r.Game.RequiredAge == nil {
				return nil, false
			}
			return []string{strconv.Itoa(*r.Game.RequiredAge)}, true
		},
	}
)
