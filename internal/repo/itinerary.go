package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-companion/internal/domain"
)

// ItineraryRepo defines the persistence operations for itinerary items.
// Every operation is scoped by trip name; item ids are only looked up within
// the owning trip.
type ItineraryRepo interface {
	// ListByTrip returns the trip's items ordered by start_time.
	// Returns domain.ErrNotFound if the trip does not exist.
	ListByTrip(ctx context.Context, tripName string) ([]domain.ItineraryItem, error)

	// Add inserts one item. Returns domain.ErrNotFound if the trip does not exist.
	Add(ctx context.Context, tripName string, item domain.ItineraryItem) error

	// Clear deletes every item of the trip and returns how many were removed.
	// Returns domain.ErrNotFound if the trip does not exist.
	Clear(ctx context.Context, tripName string) (int64, error)

	// Replace clears the trip's itinerary and inserts items in one transaction.
	// On any failure the previous itinerary is left intact.
	Replace(ctx context.Context, tripName string, items []domain.ItineraryItem) error

	// Update overwrites all mutable fields of one item and returns it.
	// Returns domain.ErrNotFound if the item does not exist under that trip.
	Update(ctx context.Context, tripName string, itemID uuid.UUID, upd domain.ItineraryUpdate) (domain.ItineraryItem, error)

	// Delete removes one item.
	// Returns domain.ErrNotFound if the item does not exist under that trip.
	Delete(ctx context.Context, tripName string, itemID uuid.UUID) error
}

// pgItineraryRepo is the Postgres implementation of ItineraryRepo.
type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

var itemColumns = []string{"id", "trip_name", "location_name", "activity", "start_time", "end_time"}

func (r *pgItineraryRepo) ListByTrip(ctx context.Context, tripName string) ([]domain.ItineraryItem, error) {
	ok, err := tripExists(ctx, r.db, tripName, false)
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: %w", domain.ErrNotFound)
	}
	items, err := listItems(ctx, r.db, tripName)
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: %w", err)
	}
	return items, nil
}

func (r *pgItineraryRepo) Add(ctx context.Context, tripName string, item domain.ItineraryItem) error {
	if err := insertItem(ctx, r.db, tripName, item); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Add: %w", err)
	}
	return nil
}

func (r *pgItineraryRepo) Clear(ctx context.Context, tripName string) (int64, error) {
	ok, err := tripExists(ctx, r.db, tripName, false)
	if err != nil {
		return 0, fmt.Errorf("repo.ItineraryRepo.Clear: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("repo.ItineraryRepo.Clear: %w", domain.ErrNotFound)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM itinerary_items WHERE trip_name = @trip_name`,
		pgx.NamedArgs{"trip_name": tripName})
	if err != nil {
		return 0, fmt.Errorf("repo.ItineraryRepo.Clear: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Replace locks the trip row so concurrent replaces of the same trip, even
// from other processes, apply one after the other. New rows go in via COPY.
func (r *pgItineraryRepo) Replace(ctx context.Context, tripName string, items []domain.ItineraryItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Replace: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := tripExists(ctx, tx, tripName, true)
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Replace: %w", err)
	}
	if !ok {
		return fmt.Errorf("repo.ItineraryRepo.Replace: %w", domain.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM itinerary_items WHERE trip_name = @trip_name`,
		pgx.NamedArgs{"trip_name": tripName}); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Replace: clear: %w", err)
	}

	if len(items) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"itinerary_items"}, itemColumns,
			pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
				it := items[i]
				return []any{pgUUID(it.ID), tripName, it.LocationName, it.Activity, it.StartTime, it.EndTime}, nil
			}))
		if err != nil {
			return fmt.Errorf("repo.ItineraryRepo.Replace: copy: %w", mapPgError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Replace: commit: %w", err)
	}
	return nil
}

func (r *pgItineraryRepo) Update(ctx context.Context, tripName string, itemID uuid.UUID, upd domain.ItineraryUpdate) (domain.ItineraryItem, error) {
	const q = `
		UPDATE itinerary_items
		SET location_name = @location_name,
		    activity      = @activity,
		    start_time    = @start_time,
		    end_time      = @end_time
		WHERE id = @id AND trip_name = @trip_name
		RETURNING trip_name, id, location_name, activity, start_time, end_time`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":            pgUUID(itemID),
		"trip_name":     tripName,
		"location_name": upd.LocationName,
		"activity":      upd.Activity,
		"start_time":    upd.StartTime,
		"end_time":      upd.EndTime,
	})
	var owner string
	it, err := scanItem(row, &owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", domain.ErrNotFound)
		}
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", err)
	}
	return it, nil
}

func (r *pgItineraryRepo) Delete(ctx context.Context, tripName string, itemID uuid.UUID) error {
	const q = `DELETE FROM itinerary_items WHERE id = @id AND trip_name = @trip_name`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": pgUUID(itemID), "trip_name": tripName})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func insertItem(ctx context.Context, q db, tripName string, it domain.ItineraryItem) error {
	const sql = `
		INSERT INTO itinerary_items (id, trip_name, location_name, activity, start_time, end_time)
		VALUES (@id, @trip_name, @location_name, @activity, @start_time, @end_time)`

	_, err := q.Exec(ctx, sql, pgx.NamedArgs{
		"id":            pgUUID(it.ID),
		"trip_name":     tripName,
		"location_name": it.LocationName,
		"activity":      it.Activity,
		"start_time":    it.StartTime,
		"end_time":      it.EndTime,
	})
	return mapPgError(err)
}

func listItems(ctx context.Context, q db, tripName string) ([]domain.ItineraryItem, error) {
	const sql = `
		SELECT trip_name, id, location_name, activity, start_time, end_time
		FROM itinerary_items
		WHERE trip_name = @trip_name
		ORDER BY start_time, id`

	rows, err := q.Query(ctx, sql, pgx.NamedArgs{"trip_name": tripName})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.ItineraryItem{}
	for rows.Next() {
		var owner string
		it, err := scanItem(rows, &owner)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

// scanItem maps a (trip_name, id, location_name, activity, start_time, end_time) row.
func scanItem(s scanner, tripName *string) (domain.ItineraryItem, error) {
	var (
		it domain.ItineraryItem
		id pgtype.UUID
	)
	if err := s.Scan(tripName, &id, &it.LocationName, &it.Activity, &it.StartTime, &it.EndTime); err != nil {
		return domain.ItineraryItem{}, err
	}
	it.ID = uuid.UUID(id.Bytes)
	return it, nil
}
