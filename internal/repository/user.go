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

// UserRepository resolves users and organizers, the two kinds of chat senders.
type UserRepository interface {
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)
	// GetOrganizerByID returns nil, nil when the organizer does not exist.
	GetOrganizerByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error)
	GetOrganizersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Organizer, error)
}

type userRepository struct {
	db  dbtx
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, name, avatar_url, role
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	var role string
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.AvatarURL, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.UserRole(role)
	return user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	users := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query, args, err := psql.Select("id", "name", "avatar_url", "role").
		From("users").
		Where("id = ANY(?)", ids).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to get users", "error", err)
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &domain.User{}
		var role string
		if err := rows.Scan(&user.ID, &user.Name, &user.AvatarURL, &role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = domain.UserRole(role)
		users[user.ID] = user
	}

	return users, rows.Err()
}

func (r *userRepository) GetOrganizerByID(ctx context.Context, id uuid.UUID) (*domain.Organizer, error) {
	query := `
		SELECT id, name, logo_url
		FROM organizers
		WHERE id = $1
	`

	organizer := &domain.Organizer{}
	err := r.db.QueryRow(ctx, query, id).Scan(&organizer.ID, &organizer.Name, &organizer.LogoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get organizer by ID", "error", err, "organizer_id", id)
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}

	return organizer, nil
}

func (r *userRepository) GetOrganizersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Organizer, error) {
	organizers := make(map[uuid.UUID]*domain.Organizer, len(ids))
	if len(ids) == 0 {
		return organizers, nil
	}

	query, args, err := psql.Select("id", "name", "logo_url").
		From("organizers").
		Where("id = ANY(?)", ids).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to get organizers", "error", err)
		return nil, fmt.Errorf("failed to get organizers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		organizer := &domain.Organizer{}
		if err := rows.Scan(&organizer.ID, &organizer.Name, &organizer.LogoURL); err != nil {
			return nil, fmt.Errorf("failed to scan organizer: %w", err)
		}
		organizers[organizer.ID] = organizer
	}

	return organizers, rows.Err()
}
