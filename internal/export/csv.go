// Package export writes pipeline tables as CSV files, one file per table,
// named after the table.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"steametl/internal/table"
)

// WriteCSV writes t to out: a header row of column names, then one record
// per row rendered with table.FormatCell.
func WriteCSV(out io.Writer, t table.Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("csv: %s row %d has %d cells, want %d", t.Name, i, len(row), len(t.Columns))
		}
		for j, v := range row {
			rec[j] = table.FormatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("csv: write row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

// Writer materializes tables into a directory.
type Writer struct {
	dir string
	log *zap.Logger
}

// NewWriter creates dir if needed.
func NewWriter(dir string, log *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("export: output dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{dir: dir, log: log.Named("export")}, nil
}

// Path returns the file t is written to.
func (w *Writer) Path(t table.Table) string {
	return filepath.Join(w.dir, t.Name+".csv")
}

// Write writes t to a temporary file in the output dir and renames it into
// place, so a failed write never leaves a truncated CSV behind.
func (w *Writer) Write(t table.Table) (string, error) {
	path := w.Path(t)
	f, err := os.CreateTemp(w.dir, "."+t.Name+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("export %s: %w", t.Name, err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("export %s: %w", t.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export %s: close: %w", t.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("export %s: %w", t.Name, err)
	}
	w.log.Info("table exported", zap.String("table", t.Name), zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return path, nil
}

// WriteAll writes tables in order, checking ctx between files.
func (w *Writer) WriteAll(ctx context.Context, tables []table.Table) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		p, err := w.Write(t)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
