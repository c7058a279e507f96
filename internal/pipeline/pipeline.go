// Package pipeline runs one batch of the Steam catalog ETL.
//
// Stages, in order:
//
//	read → dedup → structural check → transform (worker pool) → barrier
//	     → explode → summaries → quality → materialize (CSV, database)
//
// Everything up to materialize is computed in memory. A cancelled context or
// a failed stage aborts the run before anything is written.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"steametl/internal/aggregate"
	"steametl/internal/catalog"
	"steametl/internal/explode"
	"steametl/internal/export"
	"steametl/internal/metrics"
	"steametl/internal/quality"
	"steametl/internal/storage"
	"steametl/internal/table"
	"steametl/pkg/records"
)

// ctxCheckEvery bounds how many rows a worker transforms between context
// checks.
const ctxCheckEvery = 256

// Result is what a successful run produced.
type Result struct {
	RunID     string
	Read      int
	Dropped   int
	Games     []catalog.Game
	GenreRows []catalog.GenreRow
	Summaries []aggregate.Table
	Quality   *quality.Report
	// Tables is every artifact in materialization order.
	Tables     []table.Table
	Files      []string
	RowsLoaded int64
}

// Runner executes runs for one Settings value.
type Runner struct {
	s   Settings
	log *zap.Logger
}

// New returns a Runner. A nil logger discards output.
func New(s Settings, log *zap.Logger) (*Runner, error) {
	if s.Source == nil || s.Parser == nil {
		return nil, fmt.Errorf("pipeline: source and parser are required")
	}
	if s.Flattener == nil || s.Normalizer == nil || s.Deriver == nil || s.Aggregator == nil {
		return nil, fmt.Errorf("pipeline: settings are incomplete; build them with FromConfig")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		s:   s,
		log: log.Named("pipeline").With(zap.String("job", s.Job), zap.String("run_id", s.RunID)),
	}, nil
}

// Run executes every stage and returns the artifacts.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.s.RunID, Quality: quality.New(r.s.RunID, r.s.SampleLimit)}

	var recs []records.Record
	err := r.step("read", func() (err error) {
		recs, err = r.read(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Read = len(recs)
	metrics.RecordRow(r.s.Job, "read", int64(len(recs)))

	if r.s.Dedup != nil {
		_ = r.step("dedup", func() error {
			recs, res.Dropped = r.s.Dedup.Apply(recs)
			return nil
		})
		res.Quality.AddDuplicates(res.Dropped)
		metrics.RecordRow(r.s.Job, "duplicate", int64(res.Dropped))
	}

	if err := r.step("check", func() error { return r.s.Flattener.CheckBatch(recs) }); err != nil {
		return nil, err
	}

	if err := r.step("transform", func() (err error) {
		res.Games, err = r.transform(ctx, recs)
		return err
	}); err != nil {
		return nil, err
	}
	metrics.RecordRow(r.s.Job, "processed", int64(len(res.Games)))

	for i := range res.Games {
		res.Quality.Observe(&res.Games[i])
	}
	metrics.RecordRow(r.s.Job, "degraded", int64(res.Quality.Degraded()))
	for _, c := range res.Quality.Counts() {
		metrics.RecordDefects(r.s.Job, c.Field, c.Reason, int64(c.N))
	}

	_ = r.step("explode", func() error {
		res.GenreRows = explode.Collect(res.Games)
		return nil
	})
	metrics.RecordRow(r.s.Job, "genre_rows", int64(len(res.GenreRows)))

	if err := r.step("aggregate", func() (err error) {
		res.Summaries, err = r.s.Aggregator.Summaries(ctx, res.Games, res.GenreRows)
		return err
	}); err != nil {
		return nil, err
	}

	res.Tables = r.tables(res)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.step("materialize", func() error { return r.materialize(ctx, res) }); err != nil {
		return nil, err
	}

	res.Quality.Log(r.log)
	r.log.Info("run complete",
		zap.Int("read", res.Read),
		zap.Int("duplicates", res.Dropped),
		zap.Int("games", len(res.Games)),
		zap.Int("genre_rows", len(res.GenreRows)),
		zap.Int("tables", len(res.Tables)),
		zap.Int64("rows_loaded", res.RowsLoaded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// step times fn and reports it to metrics and the log.
func (r *Runner) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(r.s.Job, name, err, d)
	if err != nil {
		r.log.Error("step failed", zap.String("step", name), zap.Duration("elapsed", d), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Debug("step done", zap.String("step", name), zap.Duration("elapsed", d))
	return nil
}

func (r *Runner) read(ctx context.Context) ([]records.Record, error) {
	rc, err := r.s.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	recs, err := r.s.Parser.Parse(rc)
	if err != nil {
		return nil, err
	}
	return recs, ctx.Err()
}

// transform flattens, normalizes and derives every record. Rows are
// independent, so the input is split into contiguous chunks and each worker
// writes only its own slice positions; output order equals input order.
func (r *Runner) transform(ctx context.Context, recs []records.Record) ([]catalog.Game, error) {
	games := make([]catalog.Game, len(recs))
	if len(recs) == 0 {
		return games, nil
	}
	workers := r.s.TransformWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(recs) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(recs); lo += chunk {
		hi := min(lo+chunk, len(recs))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%ctxCheckEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				fields := r.s.Normalizer.Normalize(r.s.Flattener.Flatten(recs[i]))
				games[i] = r.s.Deriver.Derive(fields)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *Runner) tables(res *Result) []table.Table {
	out := make([]table.Table, 0, len(res.Summaries)+4)
	out = append(out, table.Games(res.Games), table.GenreRows(res.GenreRows))
	out = append(out, table.Summaries(res.Summaries)...)
	out = append(out, res.Quality.Table())
	if r.s.WriteDefects {
		out = append(out, quality.DefectsTable(res.Games))
	}
	return out
}

func (r *Runner) materialize(ctx context.Context, res *Result) error {
	if r.s.OutputDir != "" {
		w, err := export.NewWriter(r.s.OutputDir, r.log)
		if err != nil {
			return err
		}
		for _, t := range res.Tables {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := w.Write(t)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, path)
			metrics.RecordWritten(r.s.Job, "csv", t.Name, int64(len(t.Rows)))
		}
	}

	if r.s.Storage.Kind == "" {
		return nil
	}
	repo, err := storage.New(ctx, r.s.Storage)
	if err != nil {
		return err
	}
	defer repo.Close()

	sw, err := storage.NewWriter(repo, r.s.Storage.Kind, r.s.StorageWriter, r.log)
	if err != nil {
		return err
	}
	for _, t := range res.Tables {
		n, err := sw.Write(ctx, t)
		if err != nil {
			return err
		}
		res.RowsLoaded += n
		metrics.RecordWritten(r.s.Job, r.s.Storage.Kind, sw.TableName(t), n)
	}
	return nil
}
