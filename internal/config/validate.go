// Package config provides configuration models and helpers for ETL pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"steametl/internal/aggregate"
	"steametl/internal/dedup"
	"steametl/internal/derive"
	"steametl/internal/flatten"
	"steametl/internal/normalize"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "normalize.date_formats[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}


// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate p. Callers decide whether warnings are fatal.
//
//	issues := config.ValidatePipeline(*p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateSchema(p.Schema)...)
	issues = append(issues, validateNormalize(p.Normalize)...)
	issues = append(issues, validatePeriods(p.Periods)...)
	issues = append(issues, validateDedup(p.Dedup)...)
	issues = append(issues, validateAggregate(p.Aggregate)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateOutput(p.Output, p.Storage)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool { return i.Severity == SeverityError })
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

func validateSource(s Source) []Issue {
	switch s.Kind {
	case "":
		return []Issue{errorf("source.kind", "source.kind must not be empty")}
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			return []Issue{errorf("source.file.path", "file source requires a non-empty path")}
		}
	case "http":
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return []Issue{errorf("source.http.url", "http source requires an absolute http(s) url, got %q", s.HTTP.URL)}
		}
		if u.Scheme == "http" {
			return []Issue{warnf("source.http.url", "plain http url %q; prefer https", s.HTTP.URL)}
		}
		if s.HTTP.InsecureSkipVerify {
			return []Issue{warnf("source.http.insecure_skip_verify", "TLS verification is disabled")}
		}
	default:
		return []Issue{errorf("source.kind", "unknown source kind %q; want file or http", s.Kind)}
	}
	return nil
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Kind != "json" {
		issues = append(issues, errorf("parser.kind", "unknown parser kind %q; only json is supported", p.Kind))
	}
	switch shape := p.Options.String("shape", "auto"); shape {
	case "auto", "array", "ndjson", "envelope", "object_map":
	default:
		issues = append(issues, errorf("parser.options.shape", "unknown shape %q", shape))
	}
	return issues
}

func validateSchema(s Schema) []Issue {
	if len(s.Paths) == 0 {
		return nil
	}
	if _, err := flatten.WithPaths(flatten.DefaultMappings(), s.Paths); err != nil {
		return []Issue{errorf("schema.paths", "%v", err)}
	}
	return nil
}

func validateNormalize(n Normalize) []Issue {
	var issues []Issue
	if n.MaxPriceCents < 0 {
		issues = append(issues, errorf("normalize.max_price_cents", "must not be negative"))
	}
	for i, f := range n.DateFormats {
		if strings.TrimSpace(f) == "" {
			issues = append(issues, errorf(fmt.Sprintf("normalize.date_formats[%d]", i), "date format must not be empty"))
		}
	}
	if len(n.DateFormats) == 0 || len(issues) > 0 {
		return issues
	}
	if _, err := normalize.NewDates(n.DateFormats); err != nil {
		issues = append(issues, errorf("normalize.date_formats", "%v", err))
	}
	return issues
}

func validatePeriods(p Periods) []Issue {
	pre, err := derive.ParseYearMonth(p.PreEnd)
	if err != nil {
		return []Issue{errorf("periods.pre_end", "%v", err)}
	}
	covid, err := derive.ParseYearMonth(p.CovidEnd)
	if err != nil {
		return []Issue{errorf("periods.covid_end", "%v", err)}
	}
	if err := (derive.Periods{PreEnd: pre, CovidEnd: covid}).Validate(); err != nil {
		return []Issue{errorf("periods", "%v", err)}
	}
	return nil
}

func validateDedup(d Dedup) []Issue {
	if d.Disabled {
		return nil
	}
	if len(d.Keys) == 0 {
		return []Issue{errorf("dedup.keys", "dedup is enabled but has no key paths")}
	}
	if err := (dedup.DeDup{Keys: d.Keys, Policy: d.Policy}).Validate(); err != nil {
		return []Issue{errorf("dedup", "%v", err)}
	}
	return nil
}

func validateAggregate(a Aggregate) []Issue {
	var issues []Issue
	for i, name := range a.Tables {
		if !slices.Contains(aggregate.TableNames, name) {
			issues = append(issues, errorf(fmt.Sprintf("aggregate.tables[%d]", i), "unknown summary table %q", name))
		}
	}
	if a.TopPublishers < 0 {
		issues = append(issues, errorf("aggregate.top_publishers", "must not be negative"))
	}
	issues = append(issues, validateFraction("aggregate.opportunity_min_rate", a.OpportunityMinRate)...)
	issues = append(issues, validateFraction("aggregate.blockbuster_min_ratio", a.BlockbusterMinRatio)...)
	return issues
}

func validateFraction(path string, v *float64) []Issue {
	switch {
	case v == nil:
		return nil
	case *v > 1:
		return []Issue{errorf(path, "%v is above 1", *v)}
	case *v < 0:
		return []Issue{errorf(path, "%v is negative", *v)}
	}
	return nil
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.TransformWorkers < 0 {
		issues = append(issues, errorf("runtime.transform_workers", "transform_workers must not be negative"))
	}
	if r.SummaryWorkers < 0 {
		issues = append(issues, errorf("runtime.summary_workers", "summary_workers must not be negative"))
	}
	return issues
}

func validateOutput(o Output, s Storage) []Issue {
	var issues []Issue
	if !o.DisableCSV && strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, errorf("output.dir", "output.dir must not be empty when CSV output is enabled"))
	}
	if o.DisableCSV && s.Kind == "" {
		issues = append(issues, warnf("output.disable_csv", "CSV output is disabled and no storage is configured; the run produces no artifacts"))
	}
	if o.SampleLimit < 0 {
		issues = append(issues, errorf("output.sample_limit", "must not be negative"))
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	if s.Kind == "" {
		return nil
	}
	var issues []Issue
	known := []string{"postgres", "mysql", "mssql", "sqlite"}
	if !slices.Contains(known, s.Kind) {
		issues = append(issues, warnf("storage.kind", "unknown storage kind %q; ensure a matching backend is registered", s.Kind))
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, errorf("storage.db.dsn", "storage.db.dsn must not be empty"))
	}
	if s.DB.BatchSize < 0 {
		issues = append(issues, errorf("storage.db.batch_size", "must not be negative"))
	}
	if s.DB.Schema != "" && s.Kind == "sqlite" {
		issues = append(issues, warnf("storage.db.schema", "sqlite has no schemas; %q is used as an attached database name", s.DB.Schema))
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
	case "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{errorf("metrics.pushgateway_url", "prometheus backend requires a pushgateway url")}
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			return []Issue{errorf("metrics.datadog_addr", "datadog backend requires an agent address")}
		}
	default:
		return []Issue{errorf("metrics.backend", "unknown metrics backend %q; want none, prometheus or datadog", m.Backend)}
	}
	return nil
}
