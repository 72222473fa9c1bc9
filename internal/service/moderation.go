package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"event_chat/internal/domain"
	"event_chat/internal/repository"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

const moderationLogLimit = 50

type ModerationService interface {
	DeleteMessage(ctx context.Context, messageID, moderatorID uuid.UUID) (*domain.ChatMessage, error)
	// MuteUserInEvent mutes for duration, or the configured default when nil.
	// A repeated mute replaces the previous one.
	MuteUserInEvent(ctx context.Context, eventID, targetID, moderatorID uuid.UUID, duration *time.Duration) (*domain.EventMute, error)
	UnmuteUserInEvent(ctx context.Context, eventID, targetID, moderatorID uuid.UUID) error
	BanUserFromEvent(ctx context.Context, eventID, targetID, moderatorID uuid.UUID) (*domain.EventMute, error)
	// IsUserMuted is a read that may write: a mute found expired is deleted
	// before false is returned, so the table only holds live restrictions.
	IsUserMuted(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	GetMutedUsers(ctx context.Context, eventID, moderatorID uuid.UUID) ([]*domain.EventMute, error)
	GetBannedUsers(ctx context.Context, eventID, moderatorID uuid.UUID) ([]*domain.EventMute, error)
	GetModerationLog(ctx context.Context, eventID, moderatorID uuid.UUID) (*domain.ModerationLog, error)
}

type moderationService struct {
	chatRepo        repository.ChatRepository
	muteRepo        repository.MuteRepository
	userRepo        repository.UserRepository
	access          AccessService
	audit           AuditService
	notifier        Notifier
	senders         *senderResolver
	defaultDuration time.Duration
	clock           clockwork.Clock
	log             logger.Logger
}

func NewModerationService(
	chatRepo repository.ChatRepository,
	muteRepo repository.MuteRepository,
	userRepo repository.UserRepository,
	access AccessService,
	audit AuditService,
	notifier Notifier,
	defaultDuration time.Duration,
	clock clockwork.Clock,
	log logger.Logger,
) ModerationService {
	return &moderationService{
		chatRepo:        chatRepo,
		muteRepo:        muteRepo,
		userRepo:        userRepo,
		access:          access,
		audit:           audit,
		notifier:        notifier,
		senders:         &senderResolver{userRepo: userRepo},
		defaultDuration: defaultDuration,
		clock:           clock,
		log:             log,
	}
}

func (s *moderationService) DeleteMessage(ctx context.Context, messageID, moderatorID uuid.UUID) (*domain.ChatMessage, error) {
	message, err := s.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperrors.NotFound("message not found")
	}
	if message.Status == domain.MessageStatusDeleted {
		return nil, apperrors.AlreadyDeleted("message already deleted")
	}

	isModerator, err := s.access.IsEventModerator(ctx, message.EventID, moderatorID)
	if err != nil {
		return nil, err
	}
	isSender := message.SenderID == moderatorID
	if !isModerator && !isSender {
		return nil, apperrors.Forbidden("only the event moderator or the sender can delete this message")
	}

	now := s.clock.Now()
	deleted, err := s.chatRepo.SoftDeleteMessage(ctx, messageID, domain.DeletedMessagePlaceholder, now)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// lost a race with another delete
		return nil, apperrors.AlreadyDeleted("message already deleted")
	}

	message.Status = domain.MessageStatusDeleted
	message.Message = domain.DeletedMessagePlaceholder
	message.UpdatedAt = now

	role := domain.ActorRoleSender
	if isModerator {
		role = domain.ActorRoleModerator
	}
	s.record(ctx, moderatorID, role, message.EventID, domain.AuditMessageDeleted, map[string]interface{}{
		"message_id": messageID.String(),
		"sender_id":  message.SenderID.String(),
	})
	s.notifier.EventMessageDeleted(message.EventID, messageID)

	s.log.Info("Chat message deleted", "message_id", messageID, "event_id", message.EventID, "by", moderatorID)
	return message, nil
}

func (s *moderationService) MuteUserInEvent(ctx context.Context, eventID, targetID, moderatorID uuid.UUID, duration *time.Duration) (*domain.EventMute, error) {
	if err := s.requireModerator(ctx, eventID, moderatorID); err != nil {
		return nil, err
	}

	d := s.defaultDuration
	if duration != nil {
		d = *duration
	}
	if d <= 0 {
		return nil, apperrors.Validation("mute duration must be positive")
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	muteUntil := s.clock.Now().Add(d)
	mute := &domain.EventMute{
		EventID:   eventID,
		UserID:    targetID,
		MuteUntil: &muteUntil,
		MutedByID: moderatorID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.muteRepo.Upsert(ctx, mute); err != nil {
		return nil, err
	}

	s.record(ctx, moderatorID, domain.ActorRoleModerator, eventID, domain.AuditUserMuted, map[string]interface{}{
		"user_id":    targetID.String(),
		"mute_until": muteUntil,
		"minutes":    int(d / time.Minute),
	})

	s.log.Info("User muted in event chat", "event_id", eventID, "user_id", targetID, "until", muteUntil)
	return mute, nil
}

func (s *moderationService) UnmuteUserInEvent(ctx context.Context, eventID, targetID, moderatorID uuid.UUID) error {
	if err := s.requireModerator(ctx, eventID, moderatorID); err != nil {
		return err
	}

	if err := s.muteRepo.Delete(ctx, eventID, targetID); err != nil {
		return err
	}

	s.record(ctx, moderatorID, domain.ActorRoleModerator, eventID, domain.AuditUserUnmuted, map[string]interface{}{
		"user_id": targetID.String(),
	})
	return nil
}

func (s *moderationService) BanUserFromEvent(ctx context.Context, eventID, targetID, moderatorID uuid.UUID) (*domain.EventMute, error) {
	if err := s.requireModerator(ctx, eventID, moderatorID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	ban := &domain.EventMute{
		EventID:   eventID,
		UserID:    targetID,
		MuteUntil: nil,
		MutedByID: moderatorID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.muteRepo.Upsert(ctx, ban); err != nil {
		return nil, err
	}

	s.record(ctx, moderatorID, domain.ActorRoleModerator, eventID, domain.AuditUserBanned, map[string]interface{}{
		"user_id": targetID.String(),
	})

	s.log.Info("User banned from event chat", "event_id", eventID, "user_id", targetID)
	return ban, nil
}

func (s *moderationService) IsUserMuted(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	mute, err := s.muteRepo.Get(ctx, eventID, userID)
	if err != nil {
		return false, err
	}
	if mute == nil {
		return false, nil
	}

	now := s.clock.Now()
	if mute.ExpiredAt(now) {
		if _, err := s.muteRepo.DeleteExpired(ctx, eventID, userID, now); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

func (s *moderationService) GetMutedUsers(ctx context.Context, eventID, moderatorID uuid.UUID) ([]*domain.EventMute, error) {
	if err := s.requireModerator(ctx, eventID, moderatorID); err != nil {
		return nil, err
	}

	return s.muteRepo.List(ctx, repository.MuteQuery{
		Filters: []repository.MuteFilter{
			repository.MuteEventIs(eventID),
			repository.MuteActiveAfter(s.clock.Now()),
		},
	})
}

func (s *moderationService) GetBannedUsers(ctx context.Context, eventID, moderatorID uuid.UUID) ([]*domain.EventMute, error) {
	if err := s.requireModerator(ctx, eventID, moderatorID); err != nil {
		return nil, err
	}

	return s.muteRepo.List(ctx, repository.MuteQuery{
		Filters: []repository.MuteFilter{
			repository.MuteEventIs(eventID),
			repository.MutePermanent{},
		},
	})
}

func (s *moderationService) GetModerationLog(ctx context.Context, eventID, moderatorID uuid.UUID) (*domain.ModerationLog, error) {
	if err := s.requireModerator(ctx, eventID, moderatorID); err != nil {
		return nil, err
	}

	deleted, err := s.chatRepo.ListMessages(ctx, repository.MessageQuery{
		Filters: []repository.MessageFilter{
			repository.MessageEventIs(eventID),
			repository.MessageStatusIs(domain.MessageStatusDeleted),
		},
		Limit: moderationLogLimit,
	})
	if err != nil {
		return nil, err
	}
	if err := s.senders.resolve(ctx, deleted); err != nil {
		return nil, err
	}

	mutes, err := s.muteRepo.List(ctx, repository.MuteQuery{
		Filters: []repository.MuteFilter{repository.MuteEventIs(eventID)},
		Limit:   moderationLogLimit,
	})
	if err != nil {
		return nil, err
	}

	actions, err := s.audit.ListByEvent(ctx, eventID, moderationLogLimit)
	if err != nil {
		return nil, err
	}

	return &domain.ModerationLog{
		DeletedMessages: deleted,
		Mutes:           mutes,
		Actions:         actions,
	}, nil
}

func (s *moderationService) requireModerator(ctx context.Context, eventID, userID uuid.UUID) error {
	ok, err := s.access.IsEventModerator(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("only the event moderator can perform this action")
	}
	return nil
}

func (s *moderationService) requireUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// record writes an audit entry. The moderation action already happened, so
// a failing audit write is logged instead of reported.
func (s *moderationService) record(ctx context.Context, actorID uuid.UUID, role string, eventID uuid.UUID, eventType string, payload map[string]interface{}) {
	if err := s.audit.LogEvent(ctx, &actorID, role, &eventID, eventType, payload); err != nil {
		s.log.Error("Failed to write audit log", "event_type", eventType, "event_id", eventID, "error", err)
	}
}
