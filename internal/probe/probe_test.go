package probe

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"steametl/internal/config"
	"steametl/internal/datasource/file"
	"steametl/internal/flatten"
	jsonparser "steametl/internal/parser/json"
	"steametl/pkg/records"
)

func decode(t *testing.T, body string) []records.Record {
	t.Helper()
	recs, err := jsonparser.DecodeAll(strings.NewReader(body), jsonparser.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return recs
}

func coverage(rep *Report, col string) Coverage {
	for _, c := range rep.Columns {
		if c.Column == col {
			return c
		}
	}
	return Coverage{}
}

const steamSample = `{"10":{"data":{"appid":10,"name":"Counter-Strike","price":999,"release_date":"Nov 1, 2000","platforms":{"windows":true,"mac":true,"linux":true},"genre":"Action"}},
"20":{"data":{"appid":20,"name":"TFC","price":499,"release_date":{"date":"1 Apr, 1999","coming_soon":false},"platforms":{"windows":true,"mac":false,"linux":false},"genre":null}},
"30":{"data":{"appid":30,"name":"Soon","release_date":"Coming soon"}}}`

//
// ---- Inspect ----------------------------------------------------------------
//

// TestInspect_Coverage counts presence per mapped column and leaves the
// structural check clean for a conforming sample.
func TestInspect_Coverage(t *testing.T) {
	rep, err := Inspect(decode(t, steamSample), Options{})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if rep.Decoded != 3 || rep.Sampled != 3 {
		t.Fatalf("decoded=%d sampled=%d", rep.Decoded, rep.Sampled)
	}
	if rep.SchemaErr != nil {
		t.Fatalf("unexpected schema error: %v", rep.SchemaErr)
	}

	cases := map[string]int{
		flatten.ColID:     3,
		flatten.ColAppID:  3,
		flatten.ColPrice:  2,
		flatten.ColGenres: 1, // null does not count
		flatten.ColTags:   0,
	}
	for col, want := range cases {
		if got := coverage(rep, col).Present; got != want {
			t.Errorf("%s present=%d; want %d", col, got, want)
		}
	}
	if s := coverage(rep, flatten.ColPrice).Share(rep.Sampled); s < 0.66 || s > 0.67 {
		t.Errorf("price share=%v", s)
	}
}

// TestInspect_Paths keeps first-seen order and records null as a type without
// counting it as present.
func TestInspect_Paths(t *testing.T) {
	rep, err := Inspect(decode(t, steamSample), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Paths) == 0 || rep.Paths[0].Path != "data.appid" {
		t.Fatalf("first path = %+v", rep.Paths)
	}

	var genre, date *PathStat
	for i := range rep.Paths {
		switch rep.Paths[i].Path {
		case "data.genre":
			genre = &rep.Paths[i]
		case "data.release_date.date":
			date = &rep.Paths[i]
		}
	}
	if genre == nil || genre.Present != 1 || strings.Join(genre.Types, ",") != "null,string" {
		t.Fatalf("genre stat = %+v", genre)
	}
	if date == nil || date.Example != "1 Apr, 1999" {
		t.Fatalf("nested date stat = %+v", date)
	}
}

// TestInspect_DateLayouts reports layouts with hits and unparseable values,
// unwrapping the nested {"date": ...} shape.
func TestInspect_DateLayouts(t *testing.T) {
	rep, err := Inspect(decode(t, steamSample), Options{})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int{}
	for _, h := range rep.Layouts {
		got[h.Layout] = h.Hits
	}
	if got["Jan 2, 2006"] != 1 || got["2 Jan, 2006"] != 1 {
		t.Fatalf("layouts = %+v", rep.Layouts)
	}
	if len(rep.Unparsed) != 1 || rep.Unparsed[0] != "Coming soon" {
		t.Fatalf("unparsed = %q", rep.Unparsed)
	}
}

// TestInspect_SchemaMismatchAndCandidate flags a flat dump and points each
// missing column at the same leaf name elsewhere.
func TestInspect_SchemaMismatchAndCandidate(t *testing.T) {
	flat := `[{"id":"1","appid":1,"name":"A"},{"id":"2","appid":2,"name":"B"}]`
	rep, err := Inspect(decode(t, flat), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(rep.SchemaErr, flatten.ErrSchemaMismatch) {
		t.Fatalf("SchemaErr = %v", rep.SchemaErr)
	}
	if c := coverage(rep, flatten.ColAppID); c.Candidate != "appid" {
		t.Fatalf("app_id candidate = %q", c.Candidate)
	}
	if c := coverage(rep, flatten.ColName); c.Candidate != "name" {
		t.Fatalf("name candidate = %q", c.Candidate)
	}
}

func TestInspect_MaxRecords(t *testing.T) {
	rep, err := Inspect(decode(t, steamSample), Options{MaxRecords: 1})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Decoded != 3 || rep.Sampled != 1 {
		t.Fatalf("decoded=%d sampled=%d", rep.Decoded, rep.Sampled)
	}
}

//
// ---- Run --------------------------------------------------------------------
//

// TestRun_FileSource probes a local file end to end.
func TestRun_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steam.json")
	if err := os.WriteFile(path, []byte(steamSample), 0o644); err != nil {
		t.Fatal(err)
	}
	rep, err := Run(context.Background(), file.NewLocal(path), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Sampled != 3 {
		t.Fatalf("sampled=%d", rep.Sampled)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Run(context.Background(), file.NewLocal(path), Options{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestRun_BadShape(t *testing.T) {
	_, err := Run(context.Background(), file.NewLocal("unused.json"), Options{Parser: jsonparser.Options{Shape: "tsv"}})
	if !errors.Is(err, jsonparser.ErrUnsupportedShape) {
		t.Fatalf("err = %v", err)
	}
}

//
// ---- Suggest ----------------------------------------------------------------
//

// TestSuggest_ValidPipeline produces a file that passes validation and carries
// the schema overrides and layouts found by the probe.
func TestSuggest_ValidPipeline(t *testing.T) {
	flat := `[{"id":"1","appid":1,"name":"A","release_date":"2020-01-02"},{"id":"2","appid":2,"name":"B"}]`
	rep, err := Inspect(decode(t, flat), Options{})
	if err != nil {
		t.Fatal(err)
	}
	p := Suggest(rep, SuggestOptions{
		Job:     "probe-test",
		Source:  config.Source{Kind: "file", File: config.SourceFile{Path: "steam.json"}},
		Backend: "postgresql",
	})

	for _, iss := range config.ValidatePipeline(p) {
		if iss.Severity == config.SeverityError {
			t.Errorf("validation: %s", iss)
		}
	}
	if p.Schema.Paths[flatten.ColAppID] != "appid" || p.Schema.Paths[flatten.ColReleaseDate] != "release_date" {
		t.Fatalf("schema paths = %v", p.Schema.Paths)
	}
	if len(p.Dedup.Keys) != 1 || p.Dedup.Keys[0] != "appid" {
		t.Fatalf("dedup keys = %v", p.Dedup.Keys)
	}
	if len(p.Normalize.DateFormats) == 0 || p.Normalize.DateFormats[0] != "2006-01-02" {
		t.Fatalf("date formats = %v", p.Normalize.DateFormats)
	}
	if p.Storage.Kind != "postgres" || p.Storage.DB.Schema != "public" {
		t.Fatalf("storage = %+v", p.Storage)
	}
}

func TestNormalizeBackendKind(t *testing.T) {
	cases := map[string]string{
		"Postgres":  "postgres",
		"sqlserver": "mssql",
		"mariadb":   "mysql",
		"sqlite3":   "sqlite",
		"":          "",
		"oracle":    "",
	}
	for in, want := range cases {
		if got := normalizeBackendKind(in); got != want {
			t.Errorf("normalizeBackendKind(%q) = %q; want %q", in, got, want)
		}
	}
}

//
// ---- WriteText --------------------------------------------------------------
//

func TestWriteText(t *testing.T) {
	rep, err := Inspect(decode(t, steamSample), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, rep); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"records decoded: 3", "app_id", "data.platforms.mac", "DATE LAYOUT", "Coming soon"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
