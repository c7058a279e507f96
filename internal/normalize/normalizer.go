package normalize

import (
	"time"

	"steametl/internal/catalog"
	"steametl/internal/flatten"
)

// Options configures a Normalizer. The zero value uses the defaults.
type Options struct {
	MaxPriceCents int64
	DateLayouts   []string
	LanguageDelim string
	GenreDelim    string
}

// Fields is one row after normalization, before feature derivation.
type Fields struct {
	ID        string
	AppID     Result[int64]
	Name      string
	Developer string
	Publisher string
	Type      string

	Windows Result[bool]
	Mac     Result[bool]
	Linux   Result[bool]

	Price        PriceResult
	InitialPrice PriceResult
	Discount     Result[int]

	ReleaseDateRaw string
	ReleaseDate    Result[time.Time]

	Positive Result[int64]
	Negative Result[int64]

	Languages []string
	Genres    []string
	Tags      []string

	RequiredAge Result[int]
	Owners      Result[Range]
	CCU         Result[int64]

	Defects []catalog.Defect
}

// Normalizer applies the field normalizers to flattened rows. It is
// immutable and safe for concurrent use.
type Normalizer struct {
	maxPrice  int64
	dates     Dates
	langDelim string
	genDelim  string
}

// New builds a Normalizer from opts.
func New(opts Options) (*Normalizer, error) {
	dates, err := NewDates(opts.DateLayouts)
	if err != nil {
		return nil, err
	}
	n := &Normalizer{
		maxPrice:  opts.MaxPriceCents,
		dates:     dates,
		langDelim: opts.LanguageDelim,
		genDelim:  opts.GenreDelim,
	}
	if n.maxPrice <= 0 {
		n.maxPrice = DefaultMaxPriceCents
	}
	if n.langDelim == "" {
		n.langDelim = ","
	}
	if n.genDelim == "" {
		n.genDelim = ","
	}
	return n, nil
}

// Dates exposes the configured date strategies.
func (n *Normalizer) Dates() Dates { return n.dates }

// Normalize converts one flattened row. Defects are collected on the result
// in column order; nothing here aborts the row.
func (n *Normalizer) Normalize(row flatten.Row) Fields {
	var f Fields
	rec := defectRecorder{row: row, defects: &f.Defects}
	get := func(col string) (any, bool) {
		c := row.Get(col)
		return c.Value, c.Present
	}

	f.ID = Text(get(flatten.ColID))
	f.AppID = track(rec, flatten.ColAppID, Count(get(flatten.ColAppID)))
	f.Name = Text(get(flatten.ColName))
	f.Developer = Text(get(flatten.ColDeveloper))
	f.Publisher = Text(get(flatten.ColPublisher))
	f.Type = Text(get(flatten.ColType))

	f.Windows = track(rec, flatten.ColPlatformWindows, Bool(get(flatten.ColPlatformWindows)))
	f.Mac = track(rec, flatten.ColPlatformMac, Bool(get(flatten.ColPlatformMac)))
	f.Linux = track(rec, flatten.ColPlatformLinux, Bool(get(flatten.ColPlatformLinux)))

	v, present := get(flatten.ColPrice)
	f.Price = Price(v, present, n.maxPrice)
	rec.note(flatten.ColPrice, f.Price.Normalized.Reason)

	// initialprice is optional; only a malformed value is a defect.
	v, present = get(flatten.ColInitialPrice)
	f.InitialPrice = Price(v, present, n.maxPrice)
	if present {
		rec.note(flatten.ColInitialPrice, f.InitialPrice.Normalized.Reason)
	}

	f.Discount = track(rec, flatten.ColDiscount, Discount(get(flatten.ColDiscount)))

	v, present = get(flatten.ColReleaseDate)
	if present {
		f.ReleaseDateRaw = DateText(v)
	}
	f.ReleaseDate = track(rec, flatten.ColReleaseDate, n.dates.Date(v, present))

	f.Positive = track(rec, flatten.ColPositive, Reviews(get(flatten.ColPositive)))
	f.Negative = track(rec, flatten.ColNegative, Reviews(get(flatten.ColNegative)))

	v, present = get(flatten.ColLanguages)
	f.Languages = Languages(v, present, n.langDelim)
	v, present = get(flatten.ColGenres)
	f.Genres = Genres(v, present, n.genDelim)
	f.Tags = Tags(get(flatten.ColTags))

	f.RequiredAge = track(rec, flatten.ColRequiredAge, RequiredAge(get(flatten.ColRequiredAge)))
	f.Owners = track(rec, flatten.ColOwners, Owners(get(flatten.ColOwners)))
	f.CCU = track(rec, flatten.ColCCU, Count(get(flatten.ColCCU)))

	return f
}

type defectRecorder struct {
	row     flatten.Row
	defects *[]catalog.Defect
}

func (d defectRecorder) note(col string, reason Reason) {
	if reason == ReasonNone {
		return
	}
	*d.defects = append(*d.defects, catalog.Defect{
		Field:  col,
		Reason: string(reason),
		Raw:    RawText(d.row.Get(col).Value),
	})
}

func track[T any](d defectRecorder, col string, r Result[T]) Result[T] {
	d.note(col, r.Reason)
	return r
}
