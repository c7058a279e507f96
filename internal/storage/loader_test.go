package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var genreColumns = []string{"game_id", "app_id", "genre"}

// genreRows feeds n game_genres rows and closes the channel.
func genreRows(n int) <-chan []any {
	in := make(chan []any, n)
	for i := 0; i < n; i++ {
		in <- []any{"id", int64(i), "Action"}
	}
	close(in)
	return in
}

func countingCopy(calls *int32) CopyFn {
	return func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		atomic.AddInt32(calls, 1)
		return int64(len(rows)), nil
	}
}

// TestLoadBatches_Batching groups 7 rows into 3+3+1 and totals what the
// backend reports.
func TestLoadBatches_Batching(t *testing.T) {
	t.Parallel()

	var calls int32
	total, err := LoadBatches(context.Background(), zap.NewNop(), genreColumns, genreRows(7), 3, countingCopy(&calls))
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if total != 7 {
		t.Fatalf("total=%d, want 7", total)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("copy calls=%d, want 3", got)
	}
}

// TestLoadBatches_ColumnsPassedThrough hands the writer's column order to
// every copy call.
func TestLoadBatches_ColumnsPassedThrough(t *testing.T) {
	t.Parallel()

	copyFn := func(_ context.Context, cols []string, rows [][]any) (int64, error) {
		if len(cols) != len(genreColumns) || cols[2] != "genre" {
			t.Errorf("columns=%v", cols)
		}
		for _, r := range rows {
			if len(r) != len(cols) {
				t.Errorf("row %v not aligned with %v", r, cols)
			}
		}
		return int64(len(rows)), nil
	}
	if _, err := LoadBatches(context.Background(), nil, genreColumns, genreRows(4), 2, copyFn); err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
}

// TestLoadBatches_ProgressLogged emits one debug entry per flushed batch with
// a running total.
func TestLoadBatches_ProgressLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	var calls int32
	if _, err := LoadBatches(context.Background(), zap.New(core), genreColumns, genreRows(5), 2, countingCopy(&calls)); err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}

	flushed := logs.FilterMessage("batch flushed").AllUntimed()
	if len(flushed) != 3 {
		t.Fatalf("batch flushed entries=%d, want 3", len(flushed))
	}
	wantTotals := []int64{2, 4, 5}
	for i, e := range flushed {
		if e.Level != zapcore.DebugLevel {
			t.Errorf("entry %d level=%v", i, e.Level)
		}
		fields := e.ContextMap()
		if got := fields["batch"]; got != int64(i+1) {
			t.Errorf("entry %d batch=%v", i, got)
		}
		if got := fields["total"]; got != wantTotals[i] {
			t.Errorf("entry %d total=%v, want %d", i, got, wantTotals[i])
		}
		if _, ok := fields["rows_per_sec"]; !ok {
			t.Errorf("entry %d missing rows_per_sec", i)
		}
	}
}

// TestLoadBatches_CopyError stops at the failing batch, keeps the partial
// total and logs the failure at error level.
func TestLoadBatches_CopyError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	wantErr := errors.New("unique violation")
	var batches int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		batches++
		if batches == 2 {
			return 1, wantErr
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), zap.New(core), genreColumns, genreRows(6), 2, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v, want %v", err, wantErr)
	}
	if batches != 2 {
		t.Fatalf("copy calls=%d, want 2", batches)
	}
	if total != 3 {
		t.Fatalf("total=%d, want 3 (2 + 1 partial)", total)
	}

	failed := logs.FilterMessage("copy failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.ErrorLevel {
		t.Fatalf("copy failed entries=%+v", failed)
	}
	if got := failed[0].ContextMap()["inserted"]; got != int64(1) {
		t.Fatalf("inserted=%v, want 1", got)
	}
	if n := logs.FilterMessage("batch flushed").Len(); n != 1 {
		t.Fatalf("batch flushed entries=%d, want 1", n)
	}
}

func TestLoadBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	var calls int32
	if _, err := LoadBatches(context.Background(), nil, genreColumns, genreRows(1), 0, countingCopy(&calls)); err == nil {
		t.Fatal("expected error for batchSize 0")
	}
	if _, err := LoadBatches(context.Background(), nil, genreColumns, genreRows(1), 10, nil); err == nil {
		t.Fatal("expected error for nil copyFn")
	}
	if calls != 0 {
		t.Fatalf("copy called %d times", calls)
	}
}

// TestLoadBatches_EmptyInput never calls the backend.
func TestLoadBatches_EmptyInput(t *testing.T) {
	t.Parallel()

	var calls int32
	total, err := LoadBatches(context.Background(), nil, genreColumns, genreRows(0), 10, countingCopy(&calls))
	if err != nil || total != 0 || calls != 0 {
		t.Fatalf("total=%d calls=%d err=%v", total, calls, err)
	}
}

// TestLoadBatches_Cancel returns promptly when the context ends mid-copy.
func TestLoadBatches_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan []any, 1)
	in <- []any{"id", int64(1), "Action"}

	copyFn := func(ctx context.Context, _ []string, rows [][]any) (int64, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(2 * time.Second):
			return int64(len(rows)), nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, zap.NewNop(), genreColumns, in, 2, copyFn)
		errCh <- err
	}()

	cancel()
	close(in)

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches did not return after cancel")
	}
}
