package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_chat/internal/domain"
	"event_chat/pkg/logger"
)

type AuditRepository interface {
	CreateLog(ctx context.Context, log *domain.AuditLog) error
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]*domain.AuditLog, error)
}

type auditRepository struct {
	db  dbtx
	log logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, log: log}
}

func (r *auditRepository) CreateLog(ctx context.Context, auditLog *domain.AuditLog) error {
	query := `
		INSERT INTO audit_log (event_time, actor_id, actor_role, event_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	payload, err := json.Marshal(auditLog.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	err = r.db.QueryRow(ctx, query,
		auditLog.EventTime, auditLog.ActorID, auditLog.ActorRole,
		auditLog.EventID, auditLog.EventType, payload,
	).Scan(&auditLog.ID)
	if err != nil {
		r.log.Error("Failed to create audit log", "error", err)
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

func (r *auditRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, event_time, actor_id, actor_role, event_id, event_type, payload
		FROM audit_log
		WHERE event_id = $1
		ORDER BY event_time DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, eventID, limit)
	if err != nil {
		r.log.Error("Failed to list audit log", "error", err, "event_id", eventID)
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		entry := &domain.AuditLog{}
		var payload []byte
		if err := rows.Scan(
			&entry.ID, &entry.EventTime, &entry.ActorID, &entry.ActorRole,
			&entry.EventID, &entry.EventType, &payload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &entry.Payload); err != nil {
				r.log.Warn("Malformed audit payload", "id", entry.ID, "error", err)
			}
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}
