package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"event_chat/internal/domain"
	"event_chat/internal/repository"
	"event_chat/pkg/logger"
)

type AuditService interface {
	LogEvent(ctx context.Context, actorID *uuid.UUID, actorRole string, eventID *uuid.UUID, eventType string, payload map[string]interface{}) error
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]*domain.AuditLog, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	clock     clockwork.Clock
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, clock clockwork.Clock, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		clock:     clock,
		log:       log,
	}
}

func (s *auditService) LogEvent(ctx context.Context, actorID *uuid.UUID, actorRole string, eventID *uuid.UUID, eventType string, payload map[string]interface{}) error {
	if payload == nil {
		payload = make(map[string]interface{})
	}

	auditLog := &domain.AuditLog{
		EventTime: s.clock.Now(),
		ActorID:   actorID,
		ActorRole: actorRole,
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
	}

	return s.auditRepo.CreateLog(ctx, auditLog)
}

func (s *auditService) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	return s.auditRepo.ListByEvent(ctx, eventID, limit)
}
