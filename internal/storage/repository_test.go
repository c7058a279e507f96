package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

// fakeRepo records every statement and batch it receives.
type fakeRepo struct {
	mu      sync.Mutex
	closed  bool
	execs   []string
	copies  map[string][][]any
	columns map[string][]string
	copyErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{copies: map[string][][]any{}, columns: map[string][]string{}}
}

func (f *fakeRepo) CopyFrom(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.columns[table] = columns
	for _, r := range rows {
		f.copies[table] = append(f.copies[table], slices.Clone(r))
	}
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

// TestRegisterAndNew_Success verifies that registering a backend enables New()
// to return the corresponding repository.
func TestRegisterAndNew_Success(t *testing.T) {
	t.Parallel()

	kind := "fake"
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return newFakeRepo(), nil
	})

	repo, err := New(context.Background(), Config{Kind: kind, DSN: "mem"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatalf("New returned nil repo")
	}
	if !slices.Contains(ListKinds(), kind) {
		t.Fatalf("registered kind %q not present in ListKinds: %v", kind, ListKinds())
	}
}

// TestNew_Unsupported verifies that unsupported kinds wrap ErrUnsupportedKind.
func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist", DSN: "x"})
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("want ErrUnsupportedKind, got %v", err)
	}
}

// TestNew_EmptyDSN rejects a missing DSN before the factory is called.
func TestNew_EmptyDSN(t *testing.T) {
	t.Parallel()

	called := false
	Register("nodsn", func(ctx context.Context, cfg Config) (Repository, error) {
		called = true
		return newFakeRepo(), nil
	})
	if _, err := New(context.Background(), Config{Kind: "nodsn", DSN: "  "}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if called {
		t.Fatalf("factory must not be called with an empty dsn")
	}
}

// TestRegister_Override verifies that re-registering a kind overrides the
// previous factory.
func TestRegister_Override(t *testing.T) {
	t.Parallel()

	kind := "override"
	calls := 0
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls++
		return newFakeRepo(), nil
	})
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls += 10
		return newFakeRepo(), nil
	})

	if _, err := New(context.Background(), Config{Kind: kind, DSN: "mem"}); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if calls != 10 {
		t.Fatalf("factory call count = %d, want 10", calls)
	}
}

// TestRegister_AllowsErrors shows factories can return errors that bubble up.
func TestRegister_AllowsErrors(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	Register("errkind", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, want
	})

	_, err := New(context.Background(), Config{Kind: "errkind", DSN: "mem"})
	if !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}
