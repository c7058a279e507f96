// Package config defines the pipeline file model for steametl.
//
// A pipeline file is JSON or YAML. It is read with cleanenv, so every knob
// tagged with env can be overridden by a STEAMETL_* environment variable and
// falls back to its env-default when neither the file nor the environment set
// it.
//
// Example (trimmed):
//
//	job: steam-catalog
//	source:   { kind: file, file: { path: data/steam_game_output.json } }
//	parser:   { kind: json, options: { shape: auto } }
//	periods:  { pre_end: "2018-12", covid_end: "2021-12" }
//	output:   { dir: out, write_defects: true }
//	storage:  { kind: sqlite, db: { dsn: "file:steam.db" } }
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level object of a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job" env:"STEAMETL_JOB" env-default:"steametl"`

	Source    Source        `json:"source" yaml:"source"`
	Parser    Parser        `json:"parser" yaml:"parser"`
	Schema    Schema        `json:"schema" yaml:"schema"`
	Normalize Normalize     `json:"normalize" yaml:"normalize"`
	Periods   Periods       `json:"periods" yaml:"periods"`
	Dedup     Dedup         `json:"dedup" yaml:"dedup"`
	Aggregate Aggregate     `json:"aggregate" yaml:"aggregate"`
	Runtime   RuntimeConfig `json:"runtime" yaml:"runtime"`
	Output    Output        `json:"output" yaml:"output"`
	Storage   Storage       `json:"storage" yaml:"storage"`
	Metrics   Metrics       `json:"metrics" yaml:"metrics"`
}

// Source identifies where the catalog dump is read from.
type Source struct {
	// Kind is "file" or "http".
	Kind string     `json:"kind" yaml:"kind" env:"STEAMETL_SOURCE_KIND" env-default:"file"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile configures the "file" kind. A ".gz" suffix is decompressed.
type SourceFile struct {
	Path string `json:"path" yaml:"path" env:"STEAMETL_SOURCE_PATH"`
}

// SourceHTTP configures the "http" kind. A negative MaxRetries disables
// retries.
type SourceHTTP struct {
	URL                string            `json:"url" yaml:"url" env:"STEAMETL_SOURCE_URL"`
	Timeout            time.Duration     `json:"timeout" yaml:"timeout" env:"STEAMETL_SOURCE_TIMEOUT" env-default:"60s"`
	MaxRetries         int               `json:"max_retries" yaml:"max_retries" env:"STEAMETL_SOURCE_MAX_RETRIES" env-default:"3"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Headers            map[string]string `json:"headers" yaml:"headers"`
}

// Parser selects the decoder. Only "json" exists; its options are "shape"
// (auto, array, ndjson, envelope, object_map) and "envelope_key".
type Parser struct {
	Kind    string  `json:"kind" yaml:"kind" env-default:"json"`
	Options Options `json:"options" yaml:"options"`
}

// Schema overrides the source path of flattened columns, keyed by column.
type Schema struct {
	Paths map[string]string `json:"paths" yaml:"paths"`
}

// Normalize tunes field parsing. Empty values select the normalizer defaults.
type Normalize struct {
	DateFormats       []string `json:"date_formats" yaml:"date_formats"`
	MaxPriceCents     int64    `json:"max_price_cents" yaml:"max_price_cents"`
	LanguageDelimiter string   `json:"language_delimiter" yaml:"language_delimiter"`
	GenreDelimiter    string   `json:"genre_delimiter" yaml:"genre_delimiter"`
}

// Periods holds the inclusive YYYY-MM ends of the pre and covid periods.
type Periods struct {
	PreEnd   string `json:"pre_end" yaml:"pre_end" env:"STEAMETL_PRE_END" env-default:"2018-12"`
	CovidEnd string `json:"covid_end" yaml:"covid_end" env:"STEAMETL_COVID_END" env-default:"2021-12"`
}

// Dedup configures duplicate removal on raw records. Defaults apply to zero
// values, so the switch is phrased as Disabled.
type Dedup struct {
	Disabled bool     `json:"disabled" yaml:"disabled" env:"STEAMETL_DEDUP_DISABLED"`
	Keys     []string `json:"keys" yaml:"keys" env-default:"data.appid"`
	Policy   string   `json:"policy" yaml:"policy" env-default:"keep-last"`
}

// Aggregate selects summary tables and their thresholds. Zero review counts
// and unset rates take the aggregator defaults; a rate of 0 is kept.
type Aggregate struct {
	Tables                []string `json:"tables" yaml:"tables"`
	TopPublishers         int      `json:"top_publishers" yaml:"top_publishers"`
	OpportunityMinReviews int64    `json:"opportunity_min_reviews" yaml:"opportunity_min_reviews"`
	OpportunityMinRate    *float64 `json:"opportunity_min_rate,omitempty" yaml:"opportunity_min_rate,omitempty"`
	BlockbusterMinReviews int64    `json:"blockbuster_min_reviews" yaml:"blockbuster_min_reviews"`
	BlockbusterMinRatio   *float64 `json:"blockbuster_min_ratio,omitempty" yaml:"blockbuster_min_ratio,omitempty"`
}

// RuntimeConfig controls concurrency. Zero means one worker per CPU.
type RuntimeConfig struct {
	TransformWorkers int `json:"transform_workers" yaml:"transform_workers" env:"STEAMETL_TRANSFORM_WORKERS"`
	SummaryWorkers   int `json:"summary_workers" yaml:"summary_workers" env:"STEAMETL_SUMMARY_WORKERS"`
}

// Output configures CSV artifacts and the quality report.
type Output struct {
	Dir          string `json:"dir" yaml:"dir" env:"STEAMETL_OUTPUT_DIR" env-default:"out"`
	DisableCSV   bool   `json:"disable_csv" yaml:"disable_csv" env:"STEAMETL_DISABLE_CSV"`
	WriteDefects bool   `json:"write_defects" yaml:"write_defects" env:"STEAMETL_WRITE_DEFECTS"`
	SampleLimit  int    `json:"sample_limit" yaml:"sample_limit" env-default:"20"`
}

// Storage selects an optional database sink. An empty Kind disables it.
type Storage struct {
	Kind string   `json:"kind" yaml:"kind" env:"STEAMETL_STORAGE_KIND"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	DSN string `json:"dsn" yaml:"dsn" env:"STEAMETL_STORAGE_DSN"`
	// Schema qualifies table names (e.g. "public"); empty uses the default.
	Schema string `json:"schema" yaml:"schema" env:"STEAMETL_STORAGE_SCHEMA"`
	// Prefix is prepended to every table name.
	Prefix string `json:"prefix" yaml:"prefix"`
	// Replace drops and recreates tables before loading.
	Replace   bool `json:"replace" yaml:"replace" env:"STEAMETL_STORAGE_REPLACE"`
	BatchSize int  `json:"batch_size" yaml:"batch_size" env-default:"1000"`
}

// Metrics selects a metrics backend: "none", "prometheus" or "datadog".
type Metrics struct {
	Backend        string `json:"backend" yaml:"backend" env:"STEAMETL_METRICS_BACKEND" env-default:"none"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url" env:"STEAMETL_PUSHGATEWAY_URL"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr" env:"STEAMETL_DATADOG_ADDR" env-default:"127.0.0.1:8125"`
}

// Load reads a pipeline file (JSON or YAML by extension) and applies
// environment overrides and defaults.
func Load(path string) (*Pipeline, error) {
	p := &Pipeline{}
	if err := cleanenv.ReadConfig(path, p); err != nil {
		return nil, fmt.Errorf("read pipeline %s: %w", path, err)
	}
	return p, nil
}

// FromEnv builds a pipeline from environment variables and defaults only.
func FromEnv() (*Pipeline, error) {
	p := &Pipeline{}
	if err := cleanenv.ReadEnv(p); err != nil {
		return nil, fmt.Errorf("read pipeline env: %w", err)
	}
	return p, nil
}

// Dump writes p as YAML. The DSN is masked.
func Dump(w io.Writer, p Pipeline) error {
	if p.Storage.DB.DSN != "" {
		p.Storage.DB.DSN = "***"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("dump pipeline: %w", err)
	}
	return enc.Close()
}

// Options is a free-form map for kind-specific settings, with typed getters
// that return def when a key is missing or of another type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int accepts float64 (JSON) and int (YAML) values.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null options object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
