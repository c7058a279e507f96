package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func f64(v float64) *float64 { return &v }

func validPipeline() Pipeline {
	return Pipeline{
		Job:     "test-job",
		Source:  Source{Kind: "file", File: SourceFile{Path: "steam.json"}},
		Parser:  Parser{Kind: "json", Options: Options{"shape": "auto"}},
		Periods: Periods{PreEnd: "2018-12", CovidEnd: "2021-12"},
		Dedup:   Dedup{Keys: []string{"data.appid"}, Policy: "keep-last"},
		Output:  Output{Dir: "out", SampleLimit: 20},
		Storage: Storage{Kind: "sqlite", DB: DBConfig{DSN: "file::memory:", BatchSize: 500}},
		Metrics: Metrics{Backend: "none"},
	}
}

/*
TestValidatePipeline_ValidMinimal verifies that a well-formed pipeline produces
no issues and HasErrors is false.
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	issues := ValidatePipeline(validPipeline())
	if len(issues) != 0 {
		t.Fatalf("expected no issues for valid pipeline; got: %+v", issues)
	}
	if HasErrors(issues) {
		t.Fatalf("HasErrors on empty issues")
	}
}

/*
TestValidatePipeline_MissingJob verifies that an empty Job produces a
SeverityError with path "job".
*/
func TestValidatePipeline_MissingJob(t *testing.T) {
	p := validPipeline()
	p.Job = " "

	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false")
	}
}

/*
TestValidateSource_Cases exercises validateSource for every kind.
*/
func TestValidateSource_Cases(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"missing_kind", Source{}, SeverityError, "source.kind", "must not be empty"},
		{"unknown_kind", Source{Kind: "s3"}, SeverityError, "source.kind", "unknown source kind"},
		{"file_missing_path", Source{Kind: "file", File: SourceFile{Path: "  "}}, SeverityError, "source.file.path", "non-empty path"},
		{"http_relative_url", Source{Kind: "http", HTTP: SourceHTTP{URL: "/games.json"}}, SeverityError, "source.http.url", "absolute"},
		{"http_ftp_url", Source{Kind: "http", HTTP: SourceHTTP{URL: "ftp://x/games.json"}}, SeverityError, "source.http.url", "absolute"},
		{"http_plain", Source{Kind: "http", HTTP: SourceHTTP{URL: "http://x/games.json"}}, SeverityWarning, "source.http.url", "prefer https"},
		{"http_insecure", Source{Kind: "http", HTTP: SourceHTTP{URL: "https://x/g.json", InsecureSkipVerify: true}}, SeverityWarning, "source.http.insecure_skip_verify", "disabled"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			issues := validateSource(tc.src)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
		})
	}

	if issues := validateSource(Source{Kind: "http", HTTP: SourceHTTP{URL: "https://x/games.json"}}); len(issues) != 0 {
		t.Fatalf("https source: unexpected issues %+v", issues)
	}
}

func TestValidateParser_Cases(t *testing.T) {
	if issues := validateParser(Parser{Kind: "csv"}); !hasIssue(t, issues, SeverityError, "parser.kind", "only json") {
		t.Fatalf("expected error for csv parser; got %+v", issues)
	}
	if issues := validateParser(Parser{Kind: "json", Options: Options{"shape": "xml"}}); !hasIssue(t, issues, SeverityError, "parser.options.shape", "unknown shape") {
		t.Fatalf("expected error for bad shape; got %+v", issues)
	}
	if issues := validateParser(Parser{Kind: "json"}); len(issues) != 0 {
		t.Fatalf("nil options should be valid; got %+v", issues)
	}
}

/*
TestValidateDomainSections covers checks delegated to the pipeline packages:
schema path overrides, date formats, covid boundaries, dedup policy and
summary table names.
*/
func TestValidateDomainSections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Pipeline)
		path   string
		msg    string
	}{
		{"unknown_schema_column", func(p *Pipeline) { p.Schema.Paths = map[string]string{"nope": "data.x"} }, "schema.paths", "unknown column"},
		{"empty_schema_path", func(p *Pipeline) { p.Schema.Paths = map[string]string{"name": ""} }, "schema.paths", "empty path"},
		{"empty_date_format", func(p *Pipeline) { p.Normalize.DateFormats = []string{"2006-01-02", " "} }, "normalize.date_formats[1]", "must not be empty"},
		{"negative_max_price", func(p *Pipeline) { p.Normalize.MaxPriceCents = -1 }, "normalize.max_price_cents", "negative"},
		{"bad_pre_end", func(p *Pipeline) { p.Periods.PreEnd = "2018/12" }, "periods.pre_end", "YYYY-MM"},
		{"bad_covid_month", func(p *Pipeline) { p.Periods.CovidEnd = "2021-13" }, "periods.covid_end", "bad month"},
		{"periods_out_of_order", func(p *Pipeline) { p.Periods.PreEnd = "2022-01" }, "periods", "precede"},
		{"dedup_policy", func(p *Pipeline) { p.Dedup.Policy = "keep-random" }, "dedup", "unknown policy"},
		{"dedup_no_keys", func(p *Pipeline) { p.Dedup.Keys = nil }, "dedup.keys", "no key paths"},
		{"unknown_table", func(p *Pipeline) { p.Aggregate.Tables = []string{"by_genre", "by_moon"} }, "aggregate.tables[1]", "by_moon"},
		{"rate_above_one", func(p *Pipeline) { p.Aggregate.OpportunityMinRate = f64(85) }, "aggregate.opportunity_min_rate", "above 1"},
		{"negative_ratio", func(p *Pipeline) { p.Aggregate.BlockbusterMinRatio = f64(-0.1) }, "aggregate.blockbuster_min_ratio", "negative"},
		{"negative_workers", func(p *Pipeline) { p.Runtime.TransformWorkers = -2 }, "runtime.transform_workers", "negative"},
		{"empty_output_dir", func(p *Pipeline) { p.Output.Dir = "" }, "output.dir", "must not be empty"},
		{"storage_without_dsn", func(p *Pipeline) { p.Storage.DB.DSN = "" }, "storage.db.dsn", "must not be empty"},
		{"prometheus_without_url", func(p *Pipeline) { p.Metrics.Backend = "prometheus" }, "metrics.pushgateway_url", "pushgateway"},
		{"unknown_metrics", func(p *Pipeline) { p.Metrics.Backend = "statsd" }, "metrics.backend", "unknown metrics backend"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(&p)
			issues := ValidatePipeline(p)
			if !hasIssue(t, issues, SeverityError, tc.path, tc.msg) {
				t.Fatalf("expected error at %s containing %q; got %+v", tc.path, tc.msg, issues)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	p := validPipeline()
	p.Storage = Storage{Kind: "oracle", DB: DBConfig{DSN: "x"}}
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
		t.Fatalf("expected warning for unknown storage kind; got %+v", issues)
	}
	if HasErrors(issues) {
		t.Fatalf("warnings alone must not count as errors: %+v", issues)
	}

	p = validPipeline()
	p.Output.DisableCSV = true
	p.Storage = Storage{}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityWarning, "output.disable_csv", "no artifacts") {
		t.Fatalf("expected no-artifacts warning; got %+v", issues)
	}

	p = validPipeline()
	p.Dedup = Dedup{Disabled: true, Policy: "bogus"}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("disabled dedup must not be validated; got %+v", issues)
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "job", Message: "job must not be empty"}
	if got, want := iss.Error(), "error at job: job must not be empty"; got != want {
		t.Fatalf("Error() = %q; want %q", got, want)
	}
}
