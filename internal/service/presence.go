package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"event_chat/internal/repository"
	"event_chat/pkg/logger"
)

// PresenceService tracks when users were last active.
type PresenceService interface {
	Touch(ctx context.Context, userID uuid.UUID) error
	LastSeen(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]time.Time
	IsOnline(lastSeen time.Time) bool
}

type presenceService struct {
	presenceRepo repository.PresenceRepository
	onlineWindow time.Duration
	clock        clockwork.Clock
	log          logger.Logger
}

func NewPresenceService(presenceRepo repository.PresenceRepository, onlineWindow time.Duration, clock clockwork.Clock, log logger.Logger) PresenceService {
	return &presenceService{
		presenceRepo: presenceRepo,
		onlineWindow: onlineWindow,
		clock:        clock,
		log:          log,
	}
}

func (s *presenceService) Touch(ctx context.Context, userID uuid.UUID) error {
	return s.presenceRepo.Touch(ctx, userID, s.clock.Now())
}

// LastSeen never fails: presence only decorates listings, so a store
// outage degrades to everyone appearing offline.
func (s *presenceService) LastSeen(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]time.Time {
	lastSeen, err := s.presenceRepo.LastSeen(ctx, userIDs)
	if err != nil {
		s.log.Warn("Presence lookup failed", "error", err)
		return map[uuid.UUID]time.Time{}
	}
	return lastSeen
}

func (s *presenceService) IsOnline(lastSeen time.Time) bool {
	if lastSeen.IsZero() {
		return false
	}
	return s.clock.Since(lastSeen) <= s.onlineWindow
}
