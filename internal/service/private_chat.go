package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"event_chat/internal/domain"
	"event_chat/internal/repository"
	apperrors "event_chat/pkg/errors"
)

// GetMyPrivateChats lists one conversation per accepted, unblocked friend,
// including friends that have never been messaged.
func (s *chatService) GetMyPrivateChats(ctx context.Context, userID uuid.UUID) ([]*domain.PrivateChat, error) {
	friendIDs, err := s.socialRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	blockedIDs, err := s.socialRepo.ListBlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	friendIDs = slices.DeleteFunc(uniqueIDs(friendIDs), func(id uuid.UUID) bool {
		return slices.Contains(blockedIDs, id)
	})

	users, err := s.userRepo.GetByIDs(ctx, friendIDs)
	if err != nil {
		return nil, err
	}
	lastSeen := s.presence.LastSeen(ctx, friendIDs)

	chats := make([]*domain.PrivateChat, 0, len(friendIDs))
	for _, friendID := range friendIDs {
		friend, ok := users[friendID]
		if !ok {
			continue
		}

		last, err := s.privateRepo.List(ctx, repository.PrivateMessageQuery{
			Filters: []repository.PrivateMessageFilter{
				repository.PrivateBetween{A: userID, B: friendID},
				repository.PrivateNotDeleted{},
			},
			Limit: 1,
		})
		if err != nil {
			return nil, err
		}

		unread, err := s.privateRepo.Count(ctx,
			repository.PrivateFrom(friendID),
			repository.PrivateTo(userID),
			repository.PrivateStatusIs(domain.PrivateMessageStatusSent),
		)
		if err != nil {
			return nil, err
		}

		chat := &domain.PrivateChat{
			UserID:      friend.ID,
			Name:        friend.Name,
			Avatar:      friend.AvatarURL,
			UnreadCount: unread,
		}
		if at, ok := lastSeen[friendID]; ok {
			chat.IsOnline = s.presence.IsOnline(at)
		}
		if len(last) > 0 {
			chat.LastMessage = last[0]
		}
		chats = append(chats, chat)
	}

	slices.SortStableFunc(chats, func(a, b *domain.PrivateChat) int {
		switch {
		case a.LastMessage == nil && b.LastMessage == nil:
			return strings.Compare(a.Name, b.Name)
		case a.LastMessage == nil:
			return 1
		case b.LastMessage == nil:
			return -1
		}
		return b.LastMessage.CreatedAt.Compare(a.LastMessage.CreatedAt)
	})
	return chats, nil
}

func (s *chatService) GetPrivateMessages(ctx context.Context, userID, otherID uuid.UUID, page MessagePage) ([]*domain.PrivateMessage, error) {
	if err := s.requireConversation(ctx, userID, otherID); err != nil {
		return nil, err
	}

	filters := []repository.PrivateMessageFilter{
		repository.PrivateBetween{A: userID, B: otherID},
		repository.PrivateNotDeleted{},
	}
	if page.Before != nil {
		filters = append(filters, repository.PrivateCreatedBefore(*page.Before))
	}

	messages, err := s.privateRepo.List(ctx, repository.PrivateMessageQuery{
		Filters: filters,
		Limit:   s.pageLimit(page.Limit),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.privateRepo.MarkRead(ctx, otherID, userID); err != nil {
		s.log.Warn("Failed to mark private messages read", "user_id", userID, "other_id", otherID, "error", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

func (s *chatService) SendPrivateMessage(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*domain.PrivateMessage, error) {
	text, err := s.validateText(text)
	if err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("cannot send a message to yourself")
	}

	if err := s.requireConversation(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	message := &domain.PrivateMessage{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
		Status:     domain.PrivateMessageStatusSent,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.privateRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	senderName := unknownSenderName
	if sender, err := s.userRepo.GetByID(ctx, senderID); err != nil {
		s.log.Warn("Failed to resolve private message sender", "user_id", senderID, "error", err)
	} else if sender != nil {
		senderName = sender.Name
	}

	s.notifier.PrivateMessageSent(message, senderName)
	return message, nil
}

// requireConversation checks, in order, that the other user exists, that
// neither side blocked the other and that they are accepted friends.
func (s *chatService) requireConversation(ctx context.Context, userID, otherID uuid.UUID) error {
	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return err
	}
	if other == nil {
		return apperrors.NotFound("user not found")
	}

	blocked, err := s.socialRepo.IsBlocked(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if blocked {
		return apperrors.Blocked("messaging between these users is blocked")
	}

	friends, err := s.socialRepo.AreFriends(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !friends {
		return apperrors.NotFriends("you can only message your friends")
	}
	return nil
}
