package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/travel-companion/internal/domain"
)

// MessageRepo defines the persistence operations for transcript messages.
// Transcripts are append-only: there is no update or single delete.
type MessageRepo interface {
	// Append stores msg at the end of the trip's transcript.
	// Returns domain.ErrNotFound if the trip does not exist.
	Append(ctx context.Context, tripName string, msg domain.Message) error

	// ListByTrip returns the transcript oldest first.
	// Returns domain.ErrNotFound if the trip does not exist.
	ListByTrip(ctx context.Context, tripName string) ([]domain.Message, error)
}

// pgMessageRepo is the Postgres implementation of MessageRepo.
type pgMessageRepo struct {
	db db
}

// NewMessageRepo constructs a MessageRepo backed by the provided db connection.
func NewMessageRepo(db db) MessageRepo {
	return &pgMessageRepo{db: db}
}

func (r *pgMessageRepo) Append(ctx context.Context, tripName string, msg domain.Message) error {
	if err := insertMessage(ctx, r.db, tripName, msg); err != nil {
		return fmt.Errorf("repo.MessageRepo.Append: %w", err)
	}
	return nil
}

func (r *pgMessageRepo) ListByTrip(ctx context.Context, tripName string) ([]domain.Message, error) {
	ok, err := tripExists(ctx, r.db, tripName, false)
	if err != nil {
		return nil, fmt.Errorf("repo.MessageRepo.ListByTrip: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("repo.MessageRepo.ListByTrip: %w", domain.ErrNotFound)
	}
	msgs, err := listMessages(ctx, r.db, tripName)
	if err != nil {
		return nil, fmt.Errorf("repo.MessageRepo.ListByTrip: %w", err)
	}
	return msgs, nil
}

// insertMessage is shared with TripRepo.Create so seed messages go through
// the same path as later appends.
func insertMessage(ctx context.Context, q db, tripName string, msg domain.Message) error {
	const sql = `
		INSERT INTO messages (id, trip_name, role, content)
		VALUES (@id, @trip_name, @role, @content)`

	_, err := q.Exec(ctx, sql, pgx.NamedArgs{
		"id":        pgUUID(msg.ID),
		"trip_name": tripName,
		"role":      string(msg.Role),
		"content":   msg.Content,
	})
	return mapPgError(err)
}

func listMessages(ctx context.Context, q db, tripName string) ([]domain.Message, error) {
	const sql = `
		SELECT trip_name, id, role, content
		FROM messages
		WHERE trip_name = @trip_name
		ORDER BY seq`

	rows, err := q.Query(ctx, sql, pgx.NamedArgs{"trip_name": tripName})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var owner string
		m, err := scanMessage(rows, &owner)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return msgs, nil
}

// scanMessage maps a (trip_name, id, role, content) row.
func scanMessage(s scanner, tripName *string) (domain.Message, error) {
	var (
		m    domain.Message
		id   pgtype.UUID
		role string
	)
	if err := s.Scan(tripName, &id, &role, &m.Content); err != nil {
		return domain.Message{}, err
	}
	m.ID = uuid.UUID(id.Bytes)
	m.Role = domain.Role(role)
	return m, nil
}
