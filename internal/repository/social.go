package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_chat/internal/domain"
	"event_chat/pkg/logger"
)

// SocialRepository answers friendship and block questions. Both relations
// are symmetric for messaging purposes, so every check looks both ways.
type SocialRepository interface {
	IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// ListBlockedIDs returns everyone the user blocked or was blocked by.
	ListBlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type socialRepository struct {
	db  dbtx
	log logger.Logger
}

func NewSocialRepository(db *pgxpool.Pool, log logger.Logger) SocialRepository {
	return &socialRepository{db: db, log: log}
}

func (r *socialRepository) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`

	var blocked bool
	if err := r.db.QueryRow(ctx, query, a, b).Scan(&blocked); err != nil {
		r.log.Error("Failed to check block", "error", err)
		return false, fmt.Errorf("failed to check block: %w", err)
	}

	return blocked, nil
}

func (r *socialRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE status = $3
			  AND ((requester_id = $1 AND addressee_id = $2)
			    OR (requester_id = $2 AND addressee_id = $1))
		)
	`

	var friends bool
	if err := r.db.QueryRow(ctx, query, a, b, string(domain.FriendshipAccepted)).Scan(&friends); err != nil {
		r.log.Error("Failed to check friendship", "error", err)
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}

	return friends, nil
}

func (r *socialRepository) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		FROM friendships
		WHERE status = $2 AND (requester_id = $1 OR addressee_id = $1)
	`

	return r.listIDs(ctx, query, userID, string(domain.FriendshipAccepted))
}

func (r *socialRepository) ListBlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT CASE WHEN blocker_id = $1 THEN blocked_id ELSE blocker_id END
		FROM blocks
		WHERE blocker_id = $1 OR blocked_id = $1
	`

	return r.listIDs(ctx, query, userID)
}

func (r *socialRepository) listIDs(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list related users", "error", err)
		return nil, fmt.Errorf("failed to list related users: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
