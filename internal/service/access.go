package service

import (
	"context"

	"github.com/google/uuid"

	"event_chat/internal/domain"
	"event_chat/internal/repository"
	"event_chat/pkg/logger"
)

// AccessService decides who may read and write an event chat. Answers are
// recomputed on every call.
type AccessService interface {
	// HasEventChatAccess is true for holders of an ACTIVE ticket, the
	// event's organizer and platform admins. A missing event or user is
	// reported as no access rather than an error.
	HasEventChatAccess(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	// IsEventModerator is true only for the event's organizer. Admins get
	// no implicit moderation rights.
	IsEventModerator(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

type accessService struct {
	eventRepo repository.EventRepository
	userRepo  repository.UserRepository
	log       logger.Logger
}

func NewAccessService(eventRepo repository.EventRepository, userRepo repository.UserRepository, log logger.Logger) AccessService {
	return &accessService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		log:       log,
	}
}

func (s *accessService) HasEventChatAccess(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	hasTicket, err := s.eventRepo.HasActiveTicket(ctx, eventID, userID)
	if err != nil {
		return false, err
	}
	if hasTicket {
		return true, nil
	}

	isOrganizer, err := s.IsEventModerator(ctx, eventID, userID)
	if err != nil {
		return false, err
	}
	if isOrganizer {
		return true, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.Role == domain.UserRoleAdmin, nil
}

func (s *accessService) IsEventModerator(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	return event != nil && event.OrganizerID == userID, nil
}
