// Package json decodes catalog dumps into records.Record maps.
//
// Four input shapes are accepted:
//
//   - a top-level array of objects: [{"id":"10",...},{"id":"20",...}]
//   - newline-delimited objects (NDJSON), one record per value
//   - an envelope object holding the records in one array field:
//     {"games":[{...},{...}]}
//   - an id-keyed object map, as returned by store APIs:
//     {"10":{"data":{...}},"20":{"data":{...}}}
//
// With ShapeAuto the shape is detected from the first top-level value. Numbers
// are kept as json.Number so later stages decide how to parse them.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"steametl/internal/config"
	"steametl/pkg/records"
)

// Shape names an input layout.
type Shape string

const (
	ShapeAuto      Shape = "auto"
	ShapeArray     Shape = "array"
	ShapeNDJSON    Shape = "ndjson"
	ShapeEnvelope  Shape = "envelope"
	ShapeObjectMap Shape = "object_map"
)

// IDField is the record key filled from the map key of an id-keyed object map
// when the value does not carry one itself.
const IDField = "id"

// ErrUnsupportedShape is returned for a shape name this package does not know.
var ErrUnsupportedShape = errors.New("json parser: unsupported shape")

// Options controls decoding.
type Options struct {
	// Shape forces an input layout. Empty means ShapeAuto.
	Shape Shape
	// EnvelopeKey names the array field of an envelope object. When empty the
	// envelope must contain exactly one array-of-objects field.
	EnvelopeKey string
}

// FromConfigOptions reads "shape" and "envelope_key" from a parser options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{
		Shape:       Shape(strings.ToLower(o.String("shape", string(ShapeAuto)))),
		EnvelopeKey: o.String("envelope_key", ""),
	}
}

// Validate reports an unknown shape.
func (o Options) Validate() error {
	switch o.Shape {
	case "", ShapeAuto, ShapeArray, ShapeNDJSON, ShapeEnvelope, ShapeObjectMap:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedShape, o.Shape)
}

// Parser adapts DecodeAll to the parser.Parser interface.
type Parser struct {
	opt Options
}

// New returns a Parser for opt.
func New(opt Options) (*Parser, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Parser{opt: opt}, nil
}

// Parse decodes every record in r.
func (p *Parser) Parse(r io.Reader) ([]records.Record, error) {
	return DecodeAll(r, p.opt)
}

// Decoder streams NDJSON objects.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d}
}

// Next reads the next top-level object. Non-object values are skipped.
// io.EOF is returned when the stream is exhausted.
func (d *Decoder) Next() (records.Record, error) {
	for {
		var raw any
		if err := d.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("json parser: decode: %w", err)
		}
		if m, ok := raw.(map[string]any); ok {
			return records.Record(m), nil
		}
	}
}

// DecodeAll reads every record from r. An empty input yields (nil, nil).
func DecodeAll(r io.Reader, opt Options) ([]records.Record, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	shape := opt.Shape
	if shape == "" {
		shape = ShapeAuto
	}

	d := NewDecoder(r)
	if shape == ShapeNDJSON {
		return drain(d, nil)
	}

	var root any
	if err := d.dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("json parser: decode root: %w", err)
	}

	// A second top-level value means the stream is NDJSON.
	if d.dec.More() {
		if shape != ShapeAuto {
			return nil, fmt.Errorf("json parser: trailing data after %s root", shape)
		}
		var out []records.Record
		if m, ok := root.(map[string]any); ok {
			out = append(out, records.Record(m))
		}
		return drain(d, out)
	}

	switch v := root.(type) {
	case []any:
		if shape != ShapeAuto && shape != ShapeArray {
			return nil, fmt.Errorf("json parser: got array root, want %s", shape)
		}
		return objects(v, "")
	case map[string]any:
		return fromObject(v, shape, opt.EnvelopeKey)
	default:
		return nil, fmt.Errorf("json parser: unsupported top-level JSON type %T", v)
	}
}

func drain(d *Decoder, out []records.Record) ([]records.Record, error) {
	for {
		rec, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func fromObject(root map[string]any, shape Shape, envelopeKey string) ([]records.Record, error) {
	switch shape {
	case ShapeArray:
		return nil, errors.New("json parser: got object root, want array")
	case ShapeEnvelope:
		return envelope(root, envelopeKey)
	case ShapeObjectMap:
		return objectMap(root)
	}

	if envelopeKey != "" {
		if _, ok := root[envelopeKey]; ok {
			return envelope(root, envelopeKey)
		}
	}
	// A record carries its own id or payload; anything else is a container.
	if isRecord(root) {
		return []records.Record{records.Record(root)}, nil
	}
	if keys := arrayFields(root); len(keys) == 1 {
		return envelope(root, keys[0])
	}
	if allObjects(root) {
		return objectMap(root)
	}
	return []records.Record{records.Record(root)}, nil
}

func isRecord(m map[string]any) bool {
	_, hasID := m[IDField]
	_, hasData := m["data"]
	return hasID || hasData
}

func arrayFields(m map[string]any) []string {
	var keys []string
	for k, v := range m {
		arr, ok := v.([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		if _, ok := arr[0].(map[string]any); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func allObjects(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, v := range m {
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func envelope(root map[string]any, key string) ([]records.Record, error) {
	if key == "" {
		keys := arrayFields(root)
		if len(keys) != 1 {
			return nil, fmt.Errorf("json parser: envelope has %d array fields; set envelope_key", len(keys))
		}
		key = keys[0]
	}
	v, ok := root[key]
	if !ok {
		return nil, fmt.Errorf("json parser: envelope key %q not found", key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("json parser: envelope key %q is %T, want array", key, v)
	}
	return objects(arr, key)
}

func objects(arr []any, field string) ([]records.Record, error) {
	out := make([]records.Record, 0, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			if field != "" {
				return nil, fmt.Errorf("json parser: %s[%d] is not an object", field, i)
			}
			return nil, fmt.Errorf("json parser: element %d in array is not an object", i)
		}
		out = append(out, records.Record(obj))
	}
	return out, nil
}

// objectMap emits one record per entry in key order, numeric keys compared as
// numbers.
func objectMap(root map[string]any) ([]records.Record, error) {
	keys := make([]string, 0, len(root))
	for k := range root {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	out := make([]records.Record, 0, len(keys))
	for _, k := range keys {
		obj, ok := root[k].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json parser: map entry %q is not an object", k)
		}
		if v, ok := obj[IDField]; !ok || v == nil {
			obj[IDField] = k
		}
		out = append(out, records.Record(obj))
	}
	return out, nil
}

func compareKeys(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
