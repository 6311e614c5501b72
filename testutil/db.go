// Package testutil provides shared helpers for integration tests against the
// travel-companion schema. Helpers skip automatically when TEST_DATABASE_URL
// is not set, so unit tests can run without a running database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/repo"
	"github.com/pkordes/travel-companion/migrations"
)

// DSNVar names the environment variable holding the test database URL.
const DSNVar = "TEST_DATABASE_URL"

// Repos bundles the three Store Port repos over one transaction.
type Repos struct {
	Tx        pgx.Tx
	Trips     repo.TripRepo
	Messages  repo.MessageRepo
	Itinerary repo.ItineraryRepo
}

// NewRepos opens a transaction against the test database and returns the
// repos backed by it. The transaction is rolled back when the test finishes,
// so every test starts from an empty schema and leaves nothing behind.
func NewRepos(t *testing.T) Repos {
	t.Helper()
	pool := NewPool(t)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewRepos: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return Repos{
		Tx:        tx,
		Trips:     repo.NewTripRepo(tx),
		Messages:  repo.NewMessageRepo(tx),
		Itinerary: repo.NewItineraryRepo(tx),
	}
}

// TripFixture returns a new trip, with its welcome message, whose name is
// unique across test runs sharing a database.
func TripFixture(t *testing.T) domain.Trip {
	t.Helper()
	trip, err := domain.NewTrip("Boise "+uuid.NewString()[:8], time.Now())
	if err != nil {
		t.Fatalf("testutil.TripFixture: %v", err)
	}
	return trip
}

// CountRows returns how many rows of table belong to tripName. table must be
// one of the trip child tables.
func (r Repos) CountRows(t *testing.T, table, tripName string) int {
	t.Helper()
	var n int
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE trip_name = $1", pgx.Identifier{table}.Sanitize())
	if err := r.Tx.QueryRow(context.Background(), q, tripName).Scan(&n); err != nil {
		t.Fatalf("testutil.CountRows: %s: %v", table, err)
	}
	return n
}

// NewPool opens a *pgxpool.Pool on TEST_DATABASE_URL, skipping the test when
// it is not set. The pool is closed when the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := openPool(requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB returns a database/sql handle sharing a test pool's connections,
// for goose. It is closed when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db := stdlib.OpenDBFromPool(NewPool(t))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Migrate applies every pending migration to TEST_DATABASE_URL. It is a no-op
// when the variable is not set. Call it from TestMain, where no *testing.T
// is available.
func Migrate(ctx context.Context) error {
	dsn := os.Getenv(DSNVar)
	if dsn == "" {
		return nil
	}
	pool, err := openPool(dsn)
	if err != nil {
		return fmt.Errorf("testutil.Migrate: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if _, err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("testutil.Migrate: %w", err)
	}
	return nil
}

func openPool(dsn string) (*pgxpool.Pool, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// requireDSN returns TEST_DATABASE_URL, skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(DSNVar)
	if dsn == "" {
		t.Skip(DSNVar + " not set; skipping integration test")
	}
	return dsn
}
