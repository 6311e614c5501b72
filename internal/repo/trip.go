// Package repo contains all database access logic for the Travel Companion API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-companion/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test. Begin on a
// pgx.Tx opens a savepoint, so multi-statement writes still nest correctly.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TripRepo defines the persistence operations for Trips. Trips are addressed
// only by name.
type TripRepo interface {
	// Create inserts the trip row together with its initial transcript in one
	// transaction and returns the trip with created_at populated.
	// Returns domain.ErrDuplicateName if the name is taken.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByName retrieves a trip with its transcript and itinerary.
	// Returns domain.ErrNotFound if no trip has that name.
	GetByName(ctx context.Context, name string) (domain.Trip, error)

	// List returns every trip with its transcript and itinerary, ordered by
	// created_at ascending.
	List(ctx context.Context) ([]domain.Trip, error)

	// Delete removes a trip; messages and itinerary items cascade.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// Create inserts a trip and its seed messages atomically.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
		INSERT INTO trips (name)
		VALUES (@name)
		RETURNING created_at`

	if err := tx.QueryRow(ctx, q, pgx.NamedArgs{"name": trip.Name}).Scan(&trip.CreatedAt); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", mapPgError(err))
	}
	for _, m := range trip.Messages {
		if err := insertMessage(ctx, tx, trip.Name, m); err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: message: %w", err)
		}
	}
	for _, it := range trip.Itinerary {
		if err := insertItem(ctx, tx, trip.Name, it); err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: commit: %w", err)
	}
	return trip.Clone(), nil
}

// GetByName loads one trip and both child collections.
func (r *pgTripRepo) GetByName(ctx context.Context, name string) (domain.Trip, error) {
	const q = `SELECT name, created_at FROM trips WHERE name = @name`

	var t domain.Trip
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}).Scan(&t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByName: %w", domain.ErrNotFound)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByName: %w", err)
	}

	if t.Messages, err = listMessages(ctx, r.db, name); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByName: %w", err)
	}
	if t.Itinerary, err = listItems(ctx, r.db, name); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByName: %w", err)
	}
	return t, nil
}

// List loads every trip with three queries and stitches children in Go.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `SELECT name, created_at FROM trips ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	trips, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Trip, error) {
		t := domain.Trip{Messages: []domain.Message{}, Itinerary: []domain.ItineraryItem{}}
		if err := row.Scan(&t.Name, &t.CreatedAt); err != nil {
			return domain.Trip{}, err
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
	}

	index := make(map[string]int, len(trips))
	for i, t := range trips {
		index[t.Name] = i
	}

	msgRows, err := r.db.Query(ctx, `
		SELECT trip_name, id, role, content
		FROM messages
		ORDER BY trip_name, seq`)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: messages: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var tripName string
		m, err := scanMessage(msgRows, &tripName)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.List: messages: scan: %w", err)
		}
		if i, ok := index[tripName]; ok {
			trips[i].Messages = append(trips[i].Messages, m)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: messages: rows: %w", err)
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT trip_name, id, location_name, activity, start_time, end_time
		FROM itinerary_items
		ORDER BY trip_name, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var tripName string
		it, err := scanItem(itemRows, &tripName)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.List: items: scan: %w", err)
		}
		if i, ok := index[tripName]; ok {
			trips[i].Itinerary = append(trips[i].Itinerary, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: items: rows: %w", err)
	}

	return trips, nil
}

// Delete removes a trip by name. Children go with it via ON DELETE CASCADE.
func (r *pgTripRepo) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM trips WHERE name = @name`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres error codes the repos translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// tripsPrimaryKey is the constraint guarding trip names.
const tripsPrimaryKey = "trips_pkey"

// mapPgError converts constraint violations into domain sentinels. Only a
// clash on the trips primary key is a duplicate name; other unique
// violations (message or item ids) pass through unchanged. A foreign key
// failure always means the owning trip is missing.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == tripsPrimaryKey:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateName, pgErr.Detail)
		case pgErr.Code == pgForeignKeyViolation:
			return fmt.Errorf("trip: %w", domain.ErrNotFound)
		}
	}
	return err
}

// tripExists reports whether a trip row exists. With lock set the row is
// held FOR UPDATE until the surrounding transaction ends.
func tripExists(ctx context.Context, q db, name string, lock bool) (bool, error) {
	sql := `SELECT name FROM trips WHERE name = @name`
	if lock {
		sql += ` FOR UPDATE`
	}
	var got string
	err := q.QueryRow(ctx, sql, pgx.NamedArgs{"name": name}).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func pgUUID(b [16]byte) pgtype.UUID {
	return pgtype.UUID{Bytes: b, Valid: true}
}
