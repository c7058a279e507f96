package json

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"steametl/internal/config"
	"steametl/pkg/records"
)

func ids(t *testing.T, recs []records.Record) []string {
	t.Helper()
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		switch v := r[IDField].(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		default:
			t.Fatalf("record id has type %T", v)
		}
	}
	return out
}

/*
TestFromConfigOptions verifies that shape and envelope_key are read from the
parser options bag and that shape defaults to auto.
*/
func TestFromConfigOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  config.Options
		want Options
	}{
		{name: "empty", opt: config.Options{}, want: Options{Shape: ShapeAuto}},
		{name: "ndjson", opt: config.Options{"shape": "NDJSON"}, want: Options{Shape: ShapeNDJSON}},
		{
			name: "envelope",
			opt:  config.Options{"shape": "envelope", "envelope_key": "games"},
			want: Options{Shape: ShapeEnvelope, EnvelopeKey: "games"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromConfigOptions(tc.opt); got != tc.want {
				t.Fatalf("FromConfigOptions(%v) = %+v; want %+v", tc.opt, got, tc.want)
			}
		})
	}
}

func TestNew_RejectsUnknownShape(t *testing.T) {
	_, err := New(Options{Shape: "xml"})
	if !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("New(xml) err = %v; want ErrUnsupportedShape", err)
	}
}

/*
TestDecoderNext_SkipsPrimitives verifies Decoder.Next on a mixed NDJSON
stream: primitives are skipped, objects become records, EOF ends the stream.
*/
func TestDecoderNext_SkipsPrimitives(t *testing.T) {
	const ndjson = `{"id":1,"name":"a"}
42
{"id":2,"name":"b"}
`
	d := NewDecoder(strings.NewReader(ndjson))

	rec1, err := d.Next()
	if err != nil {
		t.Fatalf("Next() 1 returned error: %v", err)
	}
	if got, ok := rec1["id"].(json.Number); !ok || got.String() != "1" {
		t.Fatalf("rec1[id] = %#v (%T); want json.Number(1)", rec1["id"], rec1["id"])
	}
	rec2, err := d.Next()
	if err != nil {
		t.Fatalf("Next() 2 returned error: %v", err)
	}
	if got := rec2["name"]; got != "b" {
		t.Fatalf("rec2[name] = %#v; want b", got)
	}
	if rec3, err := d.Next(); err != io.EOF {
		t.Fatalf("Next() 3 = (%#v, %v); want (nil, io.EOF)", rec3, err)
	}
}

func TestDecodeAll_EmptyInput(t *testing.T) {
	recs, err := DecodeAll(strings.NewReader("  \n"), Options{})
	if err != nil {
		t.Fatalf("DecodeAll on empty input returned error: %v", err)
	}
	if recs != nil {
		t.Fatalf("DecodeAll on empty input = %#v; want nil", recs)
	}
}

/*
TestDecodeAll_AutoShapes covers shape detection for every supported layout.
Object maps are emitted in numeric key order with the key injected as id.
*/
func TestDecodeAll_AutoShapes(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{name: "array", data: `[{"id":"10"},{"id":"20"}]`, want: []string{"10", "20"}},
		{name: "ndjson", data: "{\"id\":\"1\"}\n{\"id\":\"2\"}\n{\"id\":\"3\"}\n", want: []string{"1", "2", "3"}},
		{name: "envelope", data: `{"count":2,"games":[{"id":"7"},{"id":"8"}]}`, want: []string{"7", "8"}},
		{name: "object_map", data: `{"100":{"data":{}},"20":{"data":{}},"3":{"id":"x"}}`, want: []string{"x", "20", "100"}},
		{name: "single", data: `{"id":"5","data":{"name":"Solo"}}`, want: []string{"5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := DecodeAll(strings.NewReader(tc.data), Options{})
			if err != nil {
				t.Fatalf("DecodeAll returned error: %v", err)
			}
			if got := ids(t, recs); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ids = %v; want %v", got, tc.want)
			}
		})
	}
}

/*
TestDecodeAll_ObjectMapKeepsNestedValues verifies that an id-keyed map entry is
returned unchanged apart from the injected id, with numbers as json.Number.
*/
func TestDecodeAll_ObjectMapKeepsNestedValues(t *testing.T) {
	const data = `{"10":{"success":true,"data":{"appid":10,"name":"Counter-Strike"}}}`

	recs, err := DecodeAll(strings.NewReader(data), Options{Shape: ShapeObjectMap})
	if err != nil {
		t.Fatalf("DecodeAll returned error: %v", err)
	}
	want := records.Record{
		"id":      "10",
		"success": true,
		"data":    map[string]any{"appid": json.Number("10"), "name": "Counter-Strike"},
	}
	if len(recs) != 1 || !reflect.DeepEqual(recs[0], want) {
		t.Fatalf("DecodeAll = %#v; want [%#v]", recs, want)
	}
}

func TestDecodeAll_EnvelopeKey(t *testing.T) {
	const data = `{"games":[{"id":"1"}],"dlc":[{"id":"2"}]}`

	if _, err := DecodeAll(strings.NewReader(data), Options{Shape: ShapeEnvelope}); err == nil {
		t.Fatalf("ambiguous envelope without key: want error")
	}
	recs, err := DecodeAll(strings.NewReader(data), Options{EnvelopeKey: "dlc"})
	if err != nil {
		t.Fatalf("DecodeAll returned error: %v", err)
	}
	if got := ids(t, recs); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("ids = %v; want [2]", got)
	}
}

/*
TestDecodeAll_Errors documents the inputs that fail decoding.
*/
func TestDecodeAll_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		opt  Options
	}{
		{name: "primitive_root", data: `42`},
		{name: "array_with_primitive", data: `[{"id":1}, 2]`},
		{name: "forced_array_got_object", data: `{"id":1}`, opt: Options{Shape: ShapeArray}},
		{name: "forced_map_got_array", data: `[{"id":1}]`, opt: Options{Shape: ShapeObjectMap}},
		{name: "map_entry_not_object", data: `{"a":1}`, opt: Options{Shape: ShapeObjectMap}},
		{name: "trailing_after_forced_array", data: "[]\n{}", opt: Options{Shape: ShapeArray}},
		{name: "malformed", data: `{"id":`},
		{name: "missing_envelope_key", data: `{"games":[]}`, opt: Options{Shape: ShapeEnvelope, EnvelopeKey: "apps"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := DecodeAll(strings.NewReader(tc.data), tc.opt)
			if err == nil {
				t.Fatalf("DecodeAll(%q) = %#v, nil; want error", tc.data, recs)
			}
		})
	}
}

func TestParser_Parse(t *testing.T) {
	p, err := New(Options{Shape: ShapeNDJSON})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	recs, err := p.Parse(strings.NewReader("{\"id\":\"a\"}\n{\"id\":\"b\"}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d; want 2", len(recs))
	}
}
