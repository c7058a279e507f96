// Package parser defines the contract between a byte source and the record
// decoders under internal/parser.
package parser

import (
	"io"

	"steametl/pkg/records"
)

// Parser decodes a whole input into raw records.
type Parser interface {
	Parse(r io.Reader) ([]records.Record, error)
}
