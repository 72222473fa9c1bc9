package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"event_chat/internal/config"
	"event_chat/internal/domain"
	"event_chat/internal/repository"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

// MessagePage selects a page of history. Pages walk backwards in time:
// Before is the created_at of the oldest message already shown.
type MessagePage struct {
	Limit  int
	Before *time.Time
}

type ChatService interface {
	GetEventMessages(ctx context.Context, eventID, userID uuid.UUID, page MessagePage) ([]*domain.ChatMessage, error)
	GetEventParticipants(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.Participant, error)
	GetMyEventChats(ctx context.Context, userID uuid.UUID, userType domain.PrincipalType) ([]*domain.EventChat, error)
	SendEventMessage(ctx context.Context, eventID, senderID uuid.UUID, senderType domain.PrincipalType, text string) (*domain.ChatMessage, error)

	GetMyPrivateChats(ctx context.Context, userID uuid.UUID) ([]*domain.PrivateChat, error)
	GetPrivateMessages(ctx context.Context, userID, otherID uuid.UUID, page MessagePage) ([]*domain.PrivateMessage, error)
	SendPrivateMessage(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*domain.PrivateMessage, error)
}

type chatService struct {
	chatRepo    repository.ChatRepository
	privateRepo repository.PrivateMessageRepository
	eventRepo   repository.EventRepository
	userRepo    repository.UserRepository
	socialRepo  repository.SocialRepository
	access      AccessService
	moderation  ModerationService
	presence    PresenceService
	rateLimit   RateLimitService
	notifier    Notifier
	senders     *senderResolver
	cfg         config.ChatConfig
	clock       clockwork.Clock
	log         logger.Logger
}

type ChatDeps struct {
	ChatRepo    repository.ChatRepository
	PrivateRepo repository.PrivateMessageRepository
	EventRepo   repository.EventRepository
	UserRepo    repository.UserRepository
	SocialRepo  repository.SocialRepository
	Access      AccessService
	Moderation  ModerationService
	Presence    PresenceService
	RateLimit   RateLimitService
	Notifier    Notifier
}

func NewChatService(deps ChatDeps, cfg config.ChatConfig, clock clockwork.Clock, log logger.Logger) ChatService {
	return &chatService{
		chatRepo:    deps.ChatRepo,
		privateRepo: deps.PrivateRepo,
		eventRepo:   deps.EventRepo,
		userRepo:    deps.UserRepo,
		socialRepo:  deps.SocialRepo,
		access:      deps.Access,
		moderation:  deps.Moderation,
		presence:    deps.Presence,
		rateLimit:   deps.RateLimit,
		notifier:    deps.Notifier,
		senders:     &senderResolver{userRepo: deps.UserRepo},
		cfg:         cfg,
		clock:       clock,
		log:         log,
	}
}

func (s *chatService) GetEventMessages(ctx context.Context, eventID, userID uuid.UUID, page MessagePage) ([]*domain.ChatMessage, error) {
	if err := s.requireAccess(ctx, eventID, userID); err != nil {
		return nil, err
	}

	filters := []repository.MessageFilter{
		repository.MessageEventIs(eventID),
		repository.MessageStatusIs(domain.MessageStatusActive),
	}
	if page.Before != nil {
		filters = append(filters, repository.MessageCreatedBefore(*page.Before))
	}

	messages, err := s.chatRepo.ListMessages(ctx, repository.MessageQuery{
		Filters: filters,
		Limit:   s.pageLimit(page.Limit),
	})
	if err != nil {
		return nil, err
	}

	if err := s.senders.resolve(ctx, messages); err != nil {
		return nil, err
	}

	// fetched newest-first, returned oldest-first
	slices.Reverse(messages)
	return messages, nil
}

func (s *chatService) GetEventParticipants(ctx context.Context, eventID, userID uuid.UUID) ([]*domain.Participant, error) {
	if err := s.requireAccess(ctx, eventID, userID); err != nil {
		return nil, err
	}

	participants := make([]*domain.Participant, 0)
	seen := make(map[uuid.UUID]struct{})

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event != nil {
		organizer, err := s.userRepo.GetOrganizerByID(ctx, event.OrganizerID)
		if err != nil {
			return nil, err
		}
		if organizer != nil {
			participants = append(participants, &domain.Participant{
				ID:     organizer.ID,
				Name:   organizer.Name,
				Avatar: organizer.LogoURL,
				Type:   domain.SenderTypeOrganizer,
			})
			seen[organizer.ID] = struct{}{}
		}
	}

	holderIDs, err := s.eventRepo.ListTicketHolderIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetByIDs(ctx, holderIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range holderIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		user, ok := users[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, &domain.Participant{
			ID:     user.ID,
			Name:   user.Name,
			Avatar: user.AvatarURL,
			Type:   domain.SenderTypeUser,
		})
	}

	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	lastSeen := s.presence.LastSeen(ctx, ids)
	for _, p := range participants {
		if at, ok := lastSeen[p.ID]; ok {
			p.LastSeenAt = &at
			p.IsOnline = s.presence.IsOnline(at)
		}
	}

	return participants, nil
}

func (s *chatService) GetMyEventChats(ctx context.Context, userID uuid.UUID, userType domain.PrincipalType) ([]*domain.EventChat, error) {
	events := make([]*domain.Event, 0)
	seen := make(map[uuid.UUID]struct{})
	add := func(list []*domain.Event) {
		for _, e := range list {
			if _, dup := seen[e.ID]; dup || !e.IsChatOpen() {
				continue
			}
			seen[e.ID] = struct{}{}
			events = append(events, e)
		}
	}

	if userType == domain.PrincipalUser || userType == domain.PrincipalAdmin {
		ticketed, err := s.eventRepo.ListTicketedEvents(ctx, userID)
		if err != nil {
			return nil, err
		}
		add(ticketed)
	}

	organized, err := s.eventRepo.ListOrganizedEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	add(organized)

	since := s.clock.Now().Add(-s.cfg.UnreadWindow)
	chats := make([]*domain.EventChat, 0, len(events))
	for _, event := range events {
		last, err := s.chatRepo.ListMessages(ctx, repository.MessageQuery{
			Filters: []repository.MessageFilter{
				repository.MessageEventIs(event.ID),
				repository.MessageStatusIs(domain.MessageStatusActive),
			},
			Limit: 1,
		})
		if err != nil {
			return nil, err
		}
		if err := s.senders.resolve(ctx, last); err != nil {
			return nil, err
		}

		// approximation: there are no read receipts for event chats
		unread, err := s.chatRepo.CountMessages(ctx,
			repository.MessageEventIs(event.ID),
			repository.MessageStatusIs(domain.MessageStatusActive),
			repository.MessageSenderIsNot(userID),
			repository.MessageCreatedAfter(since),
		)
		if err != nil {
			return nil, err
		}

		chat := &domain.EventChat{
			EventID:     event.ID,
			Title:       event.Title,
			ImageURL:    event.ImageURL,
			StartDate:   event.StartDate,
			IsOrganizer: event.OrganizerID == userID,
			UnreadCount: min(unread, s.cfg.UnreadCap),
		}
		if len(last) > 0 {
			chat.LastMessage = last[0]
		}
		chats = append(chats, chat)
	}

	slices.SortStableFunc(chats, func(a, b *domain.EventChat) int {
		return b.SortTime().Compare(a.SortTime())
	})
	return chats, nil
}

func (s *chatService) SendEventMessage(ctx context.Context, eventID, senderID uuid.UUID, senderType domain.PrincipalType, text string) (*domain.ChatMessage, error) {
	text, err := s.validateText(text)
	if err != nil {
		return nil, err
	}

	kind := domain.SenderTypeUser
	if senderType == domain.PrincipalOrganizer {
		kind = domain.SenderTypeOrganizer
	}

	if kind == domain.SenderTypeUser {
		muted, err := s.moderation.IsUserMuted(ctx, eventID, senderID)
		if err != nil {
			return nil, err
		}
		if muted {
			return nil, apperrors.Muted("you are muted in this chat")
		}
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperrors.NotFound("event not found")
	}

	if kind == domain.SenderTypeOrganizer {
		// organizers skip the ticket check but only for their own events
		if event.OrganizerID != senderID {
			return nil, apperrors.Forbidden("no access to this event chat")
		}
	} else if err := s.requireAccess(ctx, eventID, senderID); err != nil {
		return nil, err
	}

	if err := s.checkSendLimit(ctx, senderID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	message := &domain.ChatMessage{
		ID:         uuid.New(),
		EventID:    eventID,
		SenderID:   senderID,
		SenderType: kind,
		Message:    text,
		Status:     domain.MessageStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.senders.resolve(ctx, []*domain.ChatMessage{message}); err != nil {
		// the message is stored; a missing display name is cosmetic
		s.log.Warn("Failed to resolve sender", "message_id", message.ID, "error", err)
	}

	s.notifier.EventMessageSent(event, message)
	return message, nil
}

func (s *chatService) requireAccess(ctx context.Context, eventID, userID uuid.UUID) error {
	ok, err := s.access.HasEventChatAccess(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("no access to this event chat")
	}
	return nil
}

func (s *chatService) pageLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPageLimit
	}
	return min(limit, s.cfg.MaxPageLimit)
}

func (s *chatService) validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.Validation("message is required")
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(text) > s.cfg.MaxMessageLength {
		return "", apperrors.Validation(fmt.Sprintf("message is too long (max %d characters)", s.cfg.MaxMessageLength))
	}
	return text, nil
}

// checkSendLimit fails open: a rate-limit store outage must not stop chat.
func (s *chatService) checkSendLimit(ctx context.Context, senderID uuid.UUID) error {
	rule := domain.RateLimitRule{
		Scope:  domain.RateLimitScopeChatSend,
		Limit:  s.cfg.SendLimitPerMinute,
		Window: time.Minute,
	}
	if s.rateLimit == nil || !rule.Enabled() {
		return nil
	}

	key := rule.Key(senderID.String())
	allowed, err := s.rateLimit.CheckLimit(ctx, key, rule.Limit, rule.Window)
	if err != nil {
		s.log.Warn("Rate limit check failed", "user_id", senderID, "error", err)
		return nil
	}
	if !allowed {
		return apperrors.RateLimited("too many messages, slow down")
	}

	if _, err := s.rateLimit.Increment(ctx, key, rule.Window); err != nil {
		s.log.Warn("Rate limit increment failed", "user_id", senderID, "error", err)
	}
	return nil
}
