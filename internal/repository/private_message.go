package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_chat/internal/domain"
	"event_chat/pkg/logger"
)

type PrivateMessageRepository interface {
	Create(ctx context.Context, message *domain.PrivateMessage) error
	List(ctx context.Context, q PrivateMessageQuery) ([]*domain.PrivateMessage, error)
	Count(ctx context.Context, filters ...PrivateMessageFilter) (int, error)
	// MarkRead flips SENT messages from senderID to receiverID to READ.
	MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error)
}

type privateMessageRepository struct {
	db  dbtx
	log logger.Logger
}

func NewPrivateMessageRepository(db *pgxpool.Pool, log logger.Logger) PrivateMessageRepository {
	return &privateMessageRepository{db: db, log: log}
}

func (r *privateMessageRepository) Create(ctx context.Context, message *domain.PrivateMessage) error {
	query := `
		INSERT INTO private_messages (id, sender_id, receiver_id, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		message.ID, message.SenderID, message.ReceiverID, message.Message, string(message.Status), message.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create private message", "error", err)
		return fmt.Errorf("failed to create private message: %w", err)
	}

	return nil
}

func (r *privateMessageRepository) List(ctx context.Context, q PrivateMessageQuery) ([]*domain.PrivateMessage, error) {
	builder := psql.Select("p.id", "p.sender_id", "p.receiver_id", "p.message", "p.status", "p.created_at").
		From("private_messages p").
		Where(q.where()).
		OrderBy("p.created_at DESC", "p.id DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list private messages", "error", err)
		return nil, fmt.Errorf("failed to list private messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.PrivateMessage, 0)
	for rows.Next() {
		message, err := scanPrivateMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan private message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *privateMessageRepository) Count(ctx context.Context, filters ...PrivateMessageFilter) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("private_messages p").
		Where(PrivateMessageQuery{Filters: filters}.where()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count private messages", "error", err)
		return 0, fmt.Errorf("failed to count private messages: %w", err)
	}

	return count, nil
}

func (r *privateMessageRepository) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	query := `
		UPDATE private_messages
		SET status = $3
		WHERE sender_id = $1 AND receiver_id = $2 AND status = $4
	`

	tag, err := r.db.Exec(ctx, query,
		senderID, receiverID, string(domain.PrivateMessageStatusRead), string(domain.PrivateMessageStatusSent),
	)
	if err != nil {
		r.log.Error("Failed to mark private messages read", "error", err)
		return 0, fmt.Errorf("failed to mark private messages read: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanPrivateMessage(row pgx.Row) (*domain.PrivateMessage, error) {
	message := &domain.PrivateMessage{}
	var status string
	err := row.Scan(
		&message.ID, &message.SenderID, &message.ReceiverID, &message.Message, &status, &message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	message.Status = domain.PrivateMessageStatus(status)
	return message, nil
}
