package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_chat/internal/domain"
	"event_chat/pkg/logger"
)

// EventRepository reads events and tickets. Both tables are owned by the
// ticketing side of the platform; this service never writes them.
type EventRepository interface {
	// GetByID returns nil, nil when the event does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	HasActiveTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ListTicketHolderIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	// ListTicketedEvents returns open events the user holds an ACTIVE ticket for.
	ListTicketedEvents(ctx context.Context, userID uuid.UUID) ([]*domain.Event, error)
	// ListOrganizedEvents returns open events run by the organizer.
	ListOrganizedEvents(ctx context.Context, organizerID uuid.UUID) ([]*domain.Event, error)
}

var eventColumns = []string{
	"e.id", "e.title", "e.image_url", "e.organizer_id", "e.start_date", "e.status", "e.deleted_at",
}

type eventRepository struct {
	db  dbtx
	log logger.Logger
}

func NewEventRepository(db *pgxpool.Pool, log logger.Logger) EventRepository {
	return &eventRepository{db: db, log: log}
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query, args, err := psql.Select(eventColumns...).
		From("events e").
		Where("e.id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	event, err := scanEvent(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get event", "error", err, "event_id", id)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (r *eventRepository) HasActiveTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE event_id = $1 AND user_id = $2 AND status = $3
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, eventID, userID, string(domain.TicketStatusActive)).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check ticket", "error", err, "event_id", eventID, "user_id", userID)
		return false, fmt.Errorf("failed to check ticket: %w", err)
	}

	return exists, nil
}

func (r *eventRepository) ListTicketHolderIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM tickets
		WHERE event_id = $1 AND status = $2
		GROUP BY user_id
		ORDER BY MIN(created_at)
	`

	rows, err := r.db.Query(ctx, query, eventID, string(domain.TicketStatusActive))
	if err != nil {
		r.log.Error("Failed to list ticket holders", "error", err, "event_id", eventID)
		return nil, fmt.Errorf("failed to list ticket holders: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ticket holder: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *eventRepository) ListTicketedEvents(ctx context.Context, userID uuid.UUID) ([]*domain.Event, error) {
	query, args, err := psql.Select(eventColumns...).
		Distinct().
		From("events e").
		Join("tickets t ON t.event_id = e.id").
		Where("t.user_id = ?", userID).
		Where("t.status = ?", string(domain.TicketStatusActive)).
		Where("e.status = ?", string(domain.EventStatusActive)).
		Where("e.deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.listEvents(ctx, query, args)
}

func (r *eventRepository) ListOrganizedEvents(ctx context.Context, organizerID uuid.UUID) ([]*domain.Event, error) {
	query, args, err := psql.Select(eventColumns...).
		From("events e").
		Where("e.organizer_id = ?", organizerID).
		Where("e.status = ?", string(domain.EventStatusActive)).
		Where("e.deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.listEvents(ctx, query, args)
}

func (r *eventRepository) listEvents(ctx context.Context, query string, args []interface{}) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list events", "error", err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var status string
	err := row.Scan(
		&event.ID, &event.Title, &event.ImageURL, &event.OrganizerID,
		&event.StartDate, &status, &event.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Status = domain.EventStatus(status)
	return event, nil
}
