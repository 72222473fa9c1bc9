package service

import (
	"github.com/jonboulle/clockwork"

	"event_chat/internal/config"
	"event_chat/internal/notification"
	"event_chat/internal/repository"
	"event_chat/pkg/logger"
)

type Services struct {
	Access     AccessService
	Moderation ModerationService
	Chat       ChatService
	Presence   PresenceService
	RateLimit  RateLimitService
	Audit      AuditService
	Notifier   *PushNotifier
}

func NewServices(
	repos *repository.Repositories,
	cfg *config.Config,
	push notification.Client,
	broadcaster Broadcaster,
	clock clockwork.Clock,
	log logger.Logger,
) *Services {
	access := NewAccessService(repos.Event, repos.User, log)
	audit := NewAuditService(repos.Audit, clock, log)
	presence := NewPresenceService(repos.Presence, cfg.Chat.OnlineWindow, clock, log)
	rateLimit := NewRateLimitService(repos.RateLimit, log)
	notifier := NewPushNotifier(push, broadcaster, repos.Event, cfg.Chat.NotifyTimeout, log.With("component", "notifier"))

	moderation := NewModerationService(
		repos.Chat, repos.Mute, repos.User,
		access, audit, notifier,
		cfg.Chat.DefaultMuteDuration, clock, log.With("component", "moderation"),
	)

	chat := NewChatService(ChatDeps{
		ChatRepo:    repos.Chat,
		PrivateRepo: repos.PrivateMessage,
		EventRepo:   repos.Event,
		UserRepo:    repos.User,
		SocialRepo:  repos.Social,
		Access:      access,
		Moderation:  moderation,
		Presence:    presence,
		RateLimit:   rateLimit,
		Notifier:    notifier,
	}, cfg.Chat, clock, log.With("component", "chat"))

	log.Info("Services initialized", "push_configured", push.Configured())

	return &Services{
		Access:     access,
		Moderation: moderation,
		Chat:       chat,
		Presence:   presence,
		RateLimit:  rateLimit,
		Audit:      audit,
		Notifier:   notifier,
	}
}
