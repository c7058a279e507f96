package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"steametl/internal/storage"
	"steametl/internal/table"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "steam",
				"POSTGRES_USER":     "steam",
				"POSTGRES_PASSWORD": "steam",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://steam:steam@%s:%s/steam?sslmode=disable", host, port.Port())
}

func TestWriter_Postgres(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS steam"))
	w, err := storage.NewWriter(repo, "postgres", storage.WriterOptions{Schema: "steam", Replace: true, BatchSize: 2}, nil)
	require.NoError(t, err)

	tbl := table.Table{
		Name: "games",
		Columns: []table.Column{
			{Name: "id", Type: table.Text},
			{Name: "price_normalized", Type: table.Decimal, Nullable: true},
			{Name: "release_date", Type: table.Date, Nullable: true},
			{Name: "genres", Type: table.TextList},
			{Name: "positive_ratio", Type: table.Float, Nullable: true},
		},
		Rows: [][]any{
			{"10", decimal.New(1999, -2), time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC), []string{"Action", "Indie"}, 0.9},
			{"20", nil, nil, []string{}, nil},
			{"30", decimal.Zero, nil, []string{"RPG"}, 0.5},
		},
	}
	n, err := w.Write(ctx, tbl)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	pool := repo.(*wrappedRepo).Pool()
	var (
		price  decimal.Decimal
		date   time.Time
		genres []string
	)
	err = pool.QueryRow(ctx, `SELECT price_normalized::text, release_date, genres FROM steam.games WHERE id = '10'`).
		Scan(&price, &date, &genres)
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.New(1999, -2)), "price %s", price)
	require.Equal(t, "2020-03-15", date.Format("2006-01-02"))
	require.Equal(t, []string{"Action", "Indie"}, genres)
}
