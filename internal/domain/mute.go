package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventMute suppresses a user's ability to post in one event chat.
// A nil MuteUntil is a permanent ban.
type EventMute struct {
	EventID   uuid.UUID  `json:"event_id"`
	UserID    uuid.UUID  `json:"user_id"`
	MuteUntil *time.Time `json:"mute_until"`
	MutedByID uuid.UUID  `json:"muted_by_id"`
	CreatedAt time.Time  `json:"created_at"`
	// Joined for moderation listings
	UserName string `json:"user_name,omitempty"`
}

func (m *EventMute) IsPermanent() bool {
	return m.MuteUntil == nil
}

// ExpiredAt reports whether a timed mute has run out at now.
func (m *EventMute) ExpiredAt(now time.Time) bool {
	return m.MuteUntil != nil && !m.MuteUntil.After(now)
}

type ModerationLog struct {
	DeletedMessages []*ChatMessage `json:"deleted_messages"`
	Mutes           []*EventMute   `json:"mutes"`
	Actions         []*AuditLog    `json:"actions"`
}
