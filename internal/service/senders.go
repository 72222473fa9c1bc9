package service

import (
	"context"

	"github.com/google/uuid"

	"event_chat/internal/domain"
	"event_chat/internal/repository"
)

const unknownSenderName = "Unknown"

// senderResolver fills in display names and avatars. Users and organizers
// live in different tables, so messages are grouped by sender type and each
// group is resolved with one batch lookup.
type senderResolver struct {
	userRepo repository.UserRepository
}

func (r *senderResolver) resolve(ctx context.Context, messages []*domain.ChatMessage) error {
	var userIDs, organizerIDs []uuid.UUID
	for _, m := range messages {
		switch m.SenderType {
		case domain.SenderTypeOrganizer:
			organizerIDs = append(organizerIDs, m.SenderID)
		default:
			userIDs = append(userIDs, m.SenderID)
		}
	}

	users, err := r.userRepo.GetByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return err
	}
	organizers, err := r.userRepo.GetOrganizersByIDs(ctx, uniqueIDs(organizerIDs))
	if err != nil {
		return err
	}

	for _, m := range messages {
		m.SenderName = unknownSenderName
		m.SenderAvatar = nil
		switch m.SenderType {
		case domain.SenderTypeOrganizer:
			if o, ok := organizers[m.SenderID]; ok {
				m.SenderName = o.Name
				m.SenderAvatar = o.LogoURL
			}
		default:
			if u, ok := users[m.SenderID]; ok {
				m.SenderName = u.Name
				m.SenderAvatar = u.AvatarURL
			}
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
