package domain

import (
	"time"

	"github.com/google/uuid"
)

type SenderType string

const (
	SenderTypeUser      SenderType = "USER"
	SenderTypeOrganizer SenderType = "ORGANIZER"
)

type MessageStatus string

const (
	MessageStatusActive  MessageStatus = "ACTIVE"
	MessageStatusDeleted MessageStatus = "DELETED"
)

// DeletedMessagePlaceholder replaces the text of a soft-deleted message.
// The original text is not kept anywhere.
const DeletedMessagePlaceholder = "This message was deleted"

type ChatMessage struct {
	ID         uuid.UUID     `json:"id"`
	EventID    uuid.UUID     `json:"event_id"`
	SenderID   uuid.UUID     `json:"sender_id"`
	SenderType SenderType    `json:"sender_type"`
	Message    string        `json:"message"`
	Status     MessageStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	// Resolved from users or organizers depending on SenderType
	SenderName   string  `json:"sender_name,omitempty"`
	SenderAvatar *string `json:"sender_avatar,omitempty"`
}

type Participant struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Avatar     *string    `json:"avatar,omitempty"`
	Type       SenderType `json:"type"`
	IsOnline   bool       `json:"is_online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

type EventChat struct {
	EventID     uuid.UUID    `json:"event_id"`
	Title       string       `json:"title"`
	ImageURL    *string      `json:"image_url,omitempty"`
	StartDate   time.Time    `json:"start_date"`
	IsOrganizer bool         `json:"is_organizer"`
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

// SortTime is the last message time, or the event start when the chat is empty.
func (c *EventChat) SortTime() time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.StartDate
}
