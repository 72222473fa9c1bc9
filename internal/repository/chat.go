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

type ChatRepository interface {
	CreateMessage(ctx context.Context, message *domain.ChatMessage) error
	// GetMessageByID returns nil, nil when the message does not exist.
	GetMessageByID(ctx context.Context, messageID uuid.UUID) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, q MessageQuery) ([]*domain.ChatMessage, error)
	CountMessages(ctx context.Context, filters ...MessageFilter) (int, error)
	// SoftDeleteMessage redacts an ACTIVE message. It reports false when the
	// message was not ACTIVE at the time of the update.
	SoftDeleteMessage(ctx context.Context, messageID uuid.UUID, placeholder string, at time.Time) (bool, error)
}

var messageColumns = []string{
	"m.id", "m.event_id", "m.sender_id", "m.sender_type", "m.message", "m.status", "m.created_at", "m.updated_at",
}

type chatRepository struct {
	db  dbtx
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, event_id, sender_id, sender_type, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		message.ID, message.EventID, message.SenderID, string(message.SenderType),
		message.Message, string(message.Status), message.CreatedAt, message.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create chat message", "error", err, "event_id", message.EventID)
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	return nil
}

func (r *chatRepository) GetMessageByID(ctx context.Context, messageID uuid.UUID) (*domain.ChatMessage, error) {
	query, args, err := psql.Select(messageColumns...).
		From("chat_messages m").
		Where("m.id = ?", messageID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	message, err := scanMessage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get chat message", "error", err, "message_id", messageID)
		return nil, fmt.Errorf("failed to get chat message: %w", err)
	}

	return message, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, q MessageQuery) ([]*domain.ChatMessage, error) {
	builder := psql.Select(messageColumns...).
		From("chat_messages m").
		Where(q.where()).
		OrderBy("m.created_at DESC", "m.id DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list chat messages", "error", err)
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			r.log.Error("Failed to scan chat message", "error", err)
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *chatRepository) CountMessages(ctx context.Context, filters ...MessageFilter) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("chat_messages m").
		Where(MessageQuery{Filters: filters}.where()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count chat messages", "error", err)
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}

	return count, nil
}

func (r *chatRepository) SoftDeleteMessage(ctx context.Context, messageID uuid.UUID, placeholder string, at time.Time) (bool, error) {
	query := `
		UPDATE chat_messages
		SET status = $2, message = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	tag, err := r.db.Exec(ctx, query,
		messageID, string(domain.MessageStatusDeleted), placeholder, at, string(domain.MessageStatusActive),
	)
	if err != nil {
		r.log.Error("Failed to delete chat message", "error", err, "message_id", messageID)
		return false, fmt.Errorf("failed to delete chat message: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func scanMessage(row pgx.Row) (*domain.ChatMessage, error) {
	message := &domain.ChatMessage{}
	var senderType, status string
	err := row.Scan(
		&message.ID, &message.EventID, &message.SenderID, &senderType,
		&message.Message, &status, &message.CreatedAt, &message.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	message.SenderType = domain.SenderType(senderType)
	message.Status = domain.MessageStatus(status)
	return message, nil
}
