package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"steametl/internal/ddl"
	"steametl/internal/table"
)

// DefaultBatchSize is used when WriterOptions.BatchSize is not positive.
const DefaultBatchSize = 1000

// WriterOptions control how tables are materialized.
type WriterOptions struct {
	// Schema optionally qualifies every table ("steam" -> "steam.games").
	Schema string
	// Prefix is prepended to every table name.
	Prefix string
	// Replace drops each table before recreating it. Without it rows are
	// appended to an existing table.
	Replace   bool
	BatchSize int
}

// Writer creates and fills one database table per pipeline table.
type Writer struct {
	repo    Repository
	dialect Dialect
	opts    WriterOptions
	log     *zap.Logger
}

// NewWriter binds repo to the dialect registered for kind.
func NewWriter(repo Repository, kind string, opts WriterOptions, log *zap.Logger) (*Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("storage: nil repository")
	}
	d, err := LookupDialect(kind)
	if err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{repo: repo, dialect: d, opts: opts, log: log.Named("storage")}, nil
}

// TableName returns the name t is written under.
func (w *Writer) TableName(t table.Table) string {
	name := w.opts.Prefix + t.Name
	if s := strings.TrimSpace(w.opts.Schema); s != "" {
		name = s + "." + name
	}
	return name
}

// Write creates t's table if needed and bulk-loads its rows.
func (w *Writer) Write(ctx context.Context, t table.Table) (int64, error) {
	name := w.TableName(t)
	if err := w.ensure(ctx, name, t.Columns); err != nil {
		return 0, err
	}
	if len(t.Rows) == 0 {
		return 0, nil
	}

	in := make(chan []any, w.opts.BatchSize)
	encErr := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer close(in)
		for i, row := range t.Rows {
			enc, err := w.encode(t.Columns, row)
			if err != nil {
				encErr <- fmt.Errorf("table %s row %d: %w", t.Name, i, err)
				cancel()
				return
			}
			select {
			case in <- enc:
			case <-ctx.Done():
				return
			}
		}
	}()

	n, err := LoadBatches(ctx, w.log.With(zap.String("table", name)), t.ColumnNames(), in, w.opts.BatchSize,
		func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
			return w.repo.CopyFrom(ctx, name, columns, rows)
		})
	select {
	case e := <-encErr:
		return n, e
	default:
	}
	if err != nil {
		return n, fmt.Errorf("load %s: %w", name, err)
	}
	w.log.Info("table loaded", zap.String("table", name), zap.Int64("rows", n))
	return n, nil
}

// WriteAll writes tables in order and stops at the first failure.
func (w *Writer) WriteAll(ctx context.Context, tables []table.Table) (int64, error) {
	var total int64
	for _, t := range tables {
		n, err := w.Write(ctx, t)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (w *Writer) ensure(ctx context.Context, name string, cols []table.Column) error {
	d := w.dialect.DDL
	if w.opts.Replace {
		drop, err := ddl.DropTableSQL(name, d)
		if err != nil {
			return err
		}
		if err := w.repo.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	def, err := ddl.FromTable(name, cols, d)
	if err != nil {
		return err
	}
	create, err := ddl.BuildCreateTableSQL(def, d)
	if err != nil {
		return err
	}
	if err := w.repo.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

func (w *Writer) encode(cols []table.Column, row []any) ([]any, error) {
	if len(row) != len(cols) {
		return nil, fmt.Errorf("row has %d cells, want %d", len(row), len(cols))
	}
	out := make([]any, len(row))
	for i, v := range row {
		e, err := w.dialect.Encode(cols[i], v)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
