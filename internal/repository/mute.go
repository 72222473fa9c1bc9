package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_chat/internal/domain"
	"event_chat/pkg/logger"
)

type MuteRepository interface {
	// Get returns nil, nil when no mute row exists.
	Get(ctx context.Context, eventID, userID uuid.UUID) (*domain.EventMute, error)
	// Upsert inserts the mute or overwrites mute_until and muted_by_id of
	// the existing (event_id, user_id) row.
	Upsert(ctx context.Context, mute *domain.EventMute) error
	Delete(ctx context.Context, eventID, userID uuid.UUID) error
	// DeleteExpired removes the row only if it is still a timed mute that
	// ended at or before now. A concurrent re-mute or ban is left intact.
	DeleteExpired(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (bool, error)
	List(ctx context.Context, q MuteQuery) ([]*domain.EventMute, error)
}

type muteRepository struct {
	db  dbtx
	log logger.Logger
}

func NewMuteRepository(db *pgxpool.Pool, log logger.Logger) MuteRepository {
	return &muteRepository{db: db, log: log}
}

func (r *muteRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*domain.EventMute, error) {
	query := `
		SELECT event_id, user_id, mute_until, muted_by_id, created_at
		FROM event_mutes
		WHERE event_id = $1 AND user_id = $2
	`

	mute := &domain.EventMute{}
	err := r.db.QueryRow(ctx, query, eventID, userID).Scan(
		&mute.EventID, &mute.UserID, &mute.MuteUntil, &mute.MutedByID, &mute.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get mute", "error", err, "event_id", eventID, "user_id", userID)
		return nil, fmt.Errorf("failed to get mute: %w", err)
	}

	return mute, nil
}

func (r *muteRepository) Upsert(ctx context.Context, mute *domain.EventMute) error {
	query := `
		INSERT INTO event_mutes (event_id, user_id, mute_until, muted_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET mute_until = EXCLUDED.mute_until, muted_by_id = EXCLUDED.muted_by_id
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		mute.EventID, mute.UserID, mute.MuteUntil, mute.MutedByID, mute.CreatedAt,
	).Scan(&mute.CreatedAt)
	if err != nil {
		r.log.Error("Failed to upsert mute", "error", err, "event_id", mute.EventID, "user_id", mute.UserID)
		return fmt.Errorf("failed to upsert mute: %w", err)
	}

	return nil
}

func (r *muteRepository) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	query := `DELETE FROM event_mutes WHERE event_id = $1 AND user_id = $2`

	if _, err := r.db.Exec(ctx, query, eventID, userID); err != nil {
		r.log.Error("Failed to delete mute", "error", err, "event_id", eventID, "user_id", userID)
		return fmt.Errorf("failed to delete mute: %w", err)
	}

	return nil
}

func (r *muteRepository) DeleteExpired(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (bool, error) {
	query := `
		DELETE FROM event_mutes
		WHERE event_id = $1 AND user_id = $2
		  AND mute_until IS NOT NULL AND mute_until <= $3
	`

	tag, err := r.db.Exec(ctx, query, eventID, userID, now)
	if err != nil {
		r.log.Error("Failed to delete expired mute", "error", err, "event_id", eventID, "user_id", userID)
		return false, fmt.Errorf("failed to delete expired mute: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *muteRepository) List(ctx context.Context, q MuteQuery) ([]*domain.EventMute, error) {
	builder := psql.Select(
		"em.event_id", "em.user_id", "em.mute_until", "em.muted_by_id", "em.created_at", "COALESCE(u.name, '')",
	).
		From("event_mutes em").
		LeftJoin("users u ON u.id = em.user_id").
		Where(q.where()).
		OrderBy("em.created_at DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list mutes", "error", err)
		return nil, fmt.Errorf("failed to list mutes: %w", err)
	}
	defer rows.Close()

	mutes := make([]*domain.EventMute, 0)
	for rows.Next() {
		mute := &domain.EventMute{}
		if err := rows.Scan(
			&mute.EventID, &mute.UserID, &mute.MuteUntil, &mute.MutedByID, &mute.CreatedAt, &mute.UserName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mute: %w", err)
		}
		mutes = append(mutes, mute)
	}

	return mutes, rows.Err()
}
