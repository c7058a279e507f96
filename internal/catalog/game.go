// Package catalog holds the cleaned, typed shape of a catalog entry.
//
// A Game is one flattened, normalized and feature-enriched row of the base
// table. Optional values are pointers: a nil pointer means the source value
// was absent or failed normalization, and the reason is recorded in Defects.
package catalog

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies an operating system a game ships on.
type Platform string

const (
	Windows Platform = "windows"
	Mac     Platform = "mac"
	Linux   Platform = "linux"
)

// Platforms lists every known platform in canonical order.
var Platforms = []Platform{Windows, Mac, Linux}

// CovidPeriod buckets a release date relative to the configured boundaries.
type CovidPeriod string

const (
	PeriodPre     CovidPeriod = "pre"
	PeriodCovid   CovidPeriod = "covid"
	PeriodPost    CovidPeriod = "post"
	PeriodUnknown CovidPeriod = "unknown"
)

// Defect records a single field that was degraded during normalization.
type Defect struct {
	Field  string // flat column name, e.g. "price_raw"
	Reason string // reason code, e.g. "invalid_price"
	Raw    string // textual form of the offending source value
}

// Game is the FlatRecord: one row per catalog entry.
type Game struct {
	ID        string
	AppID     *int64
	Name      string
	Developer string
	Publisher string
	Type      string

	PlatformWindows bool
	PlatformMac     bool
	PlatformLinux   bool
	PlatformProfile string

	PriceRaw               *int64
	PriceNormalized        *decimal.Decimal
	InitialPriceRaw        *int64
	InitialPriceNormalized *decimal.Decimal
	Discount               *int

	ReleaseDateRaw string
	ReleaseDate    *time.Time
	ReleaseYear    *int
	ReleaseMonth   *int
	CovidPeriod    CovidPeriod

	PositiveReviews int64
	NegativeReviews int64
	TotalReviews    int64
	PositiveRatio   *float64

	SupportedLanguages []string
	LanguageCount      int

	RequiredAge *int
	OwnersLow   *int64
	OwnersHigh  *int64
	CCU         *int64

	Genres []string
	Tags   []string

	Defects []Defect
}

// Supports reports whether the game ships on p.
func (g *Game) Supports(p Platform) bool {
	switch p {
	case Windows:
		return g.PlatformWindows
	case Mac:
		return g.PlatformMac
	case Linux:
		return g.PlatformLinux
	default:
		return false
	}
}

// Key returns the identity used for distinct-game counting: the Steam app id
// when known, otherwise the envelope id.
func (g *Game) Key() string {
	if g.AppID != nil {
		return "app:" + strconv.FormatInt(*g.AppID, 10)
	}
	return "id:" + g.ID
}

// GenreRow is one (game, genre) pair produced by genre explosion. The Game is
// shared by reference and must not be mutated.
type GenreRow struct {
	Genre string
	Game  *Game
}

// AddCounts adds two non-negative counts, saturating at math.MaxInt64.
func AddCounts(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
