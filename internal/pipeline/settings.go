package pipeline

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"steametl/internal/aggregate"
	"steametl/internal/config"
	"steametl/internal/datasource"
	"steametl/internal/datasource/file"
	"steametl/internal/datasource/httpds"
	"steametl/internal/dedup"
	"steametl/internal/derive"
	"steametl/internal/flatten"
	"steametl/internal/normalize"
	"steametl/internal/parser"
	jsonparser "steametl/internal/parser/json"
	"steametl/internal/storage"
)

// Settings is the resolved, immutable configuration of one run. Every stage
// reads its knobs from here; nothing consults the environment after
// FromConfig returns.
type Settings struct {
	Job   string
	RunID string

	Source datasource.Source
	Parser parser.Parser
	// Dedup is nil when duplicate removal is disabled.
	Dedup *dedup.DeDup

	Flattener  *flatten.Flattener
	Normalizer *normalize.Normalizer
	Deriver    *derive.Deriver
	Aggregator *aggregate.Aggregator

	// TransformWorkers <= 0 means one per CPU.
	TransformWorkers int

	// OutputDir receives the CSV artifacts; empty disables CSV output.
	OutputDir    string
	WriteDefects bool
	SampleLimit  int

	// Storage.Kind empty disables the database sink.
	Storage       storage.Config
	StorageWriter storage.WriterOptions
}

// FromConfig builds Settings from a validated pipeline file. A fresh run id is
// assigned.
func FromConfig(p config.Pipeline) (Settings, error) {
	s := Settings{
		Job:              p.Job,
		RunID:            uuid.NewString(),
		TransformWorkers: p.Runtime.TransformWorkers,
		WriteDefects:     p.Output.WriteDefects,
		SampleLimit:      p.Output.SampleLimit,
	}
	if !p.Output.DisableCSV {
		s.OutputDir = p.Output.Dir
	}

	src, err := buildSource(p.Source)
	if err != nil {
		return Settings{}, err
	}
	s.Source = src

	if p.Parser.Kind != "json" {
		return Settings{}, fmt.Errorf("pipeline: unsupported parser.kind=%s", p.Parser.Kind)
	}
	jp, err := jsonparser.New(jsonparser.FromConfigOptions(p.Parser.Options))
	if err != nil {
		return Settings{}, fmt.Errorf("pipeline: parser: %w", err)
	}
	s.Parser = jp

	if !p.Dedup.Disabled {
		d := dedup.DeDup{Keys: p.Dedup.Keys, Policy: p.Dedup.Policy}
		if err := d.Validate(); err != nil {
			return Settings{}, fmt.Errorf("pipeline: %w", err)
		}
		s.Dedup = &d
	}

	mappings, err := flatten.WithPaths(flatten.DefaultMappings(), p.Schema.Paths)
	if err != nil {
		return Settings{}, fmt.Errorf("pipeline: %w", err)
	}
	if s.Flattener, err = flatten.New(mappings); err != nil {
		return Settings{}, fmt.Errorf("pipeline: %w", err)
	}

	layouts := p.Normalize.DateFormats
	if len(layouts) == 0 {
		layouts = nil
	}
	s.Normalizer, err = normalize.New(normalize.Options{
		MaxPriceCents: p.Normalize.MaxPriceCents,
		DateLayouts:   layouts,
		LanguageDelim: p.Normalize.LanguageDelimiter,
		GenreDelim:    p.Normalize.GenreDelimiter,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("pipeline: %w", err)
	}

	periods, err := parsePeriods(p.Periods)
	if err != nil {
		return Settings{}, err
	}
	if s.Deriver, err = derive.New(periods); err != nil {
		return Settings{}, fmt.Errorf("pipeline: %w", err)
	}

	s.Aggregator, err = aggregate.New(aggregate.Options{
		Tables:                p.Aggregate.Tables,
		TopPublishers:         p.Aggregate.TopPublishers,
		OpportunityMinReviews: p.Aggregate.OpportunityMinReviews,
		OpportunityMinRate:    p.Aggregate.OpportunityMinRate,
		BlockbusterMinReviews: p.Aggregate.BlockbusterMinReviews,
		BlockbusterMinRatio:   p.Aggregate.BlockbusterMinRatio,
		Workers:               p.Runtime.SummaryWorkers,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("pipeline: %w", err)
	}

	if p.Storage.Kind != "" {
		s.Storage = storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DB.DSN}
		s.StorageWriter = storage.WriterOptions{
			Schema:    p.Storage.DB.Schema,
			Prefix:    p.Storage.DB.Prefix,
			Replace:   p.Storage.DB.Replace,
			BatchSize: p.Storage.DB.BatchSize,
		}
	}
	return s, nil
}

func buildSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		if s.File.Path == "" {
			return nil, fmt.Errorf("pipeline: file source requires a path")
		}
		return file.NewLocal(s.File.Path), nil
	case "http":
		hdr := http.Header{}
		for k, v := range s.HTTP.Headers {
			hdr.Set(k, v)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:            s.HTTP.Timeout,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			Headers:            hdr,
		})
		return httpds.NewSource(client, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("pipeline: unsupported source.kind=%s", s.Kind)
	}
}

func parsePeriods(p config.Periods) (derive.Periods, error) {
	out := derive.DefaultPeriods()
	if p.PreEnd != "" {
		ym, err := derive.ParseYearMonth(p.PreEnd)
		if err != nil {
			return derive.Periods{}, fmt.Errorf("pipeline: periods.pre_end: %w", err)
		}
		out.PreEnd = ym
	}
	if p.CovidEnd != "" {
		ym, err := derive.ParseYearMonth(p.CovidEnd)
		if err != nil {
			return derive.Periods{}, fmt.Errorf("pipeline: periods.covid_end: %w", err)
		}
		out.CovidEnd = ym
	}
	return out, nil
}
