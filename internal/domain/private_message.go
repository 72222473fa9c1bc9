package domain

import (
	"time"

	"github.com/google/uuid"
)

type PrivateMessageStatus string

const (
	PrivateMessageStatusSent    PrivateMessageStatus = "SENT"
	PrivateMessageStatusRead    PrivateMessageStatus = "READ"
	PrivateMessageStatusDeleted PrivateMessageStatus = "DELETED"
)

type PrivateMessage struct {
	ID         uuid.UUID            `json:"id"`
	SenderID   uuid.UUID            `json:"sender_id"`
	ReceiverID uuid.UUID            `json:"receiver_id"`
	Message    string               `json:"message"`
	Status     PrivateMessageStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
}

type PrivateChat struct {
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	Avatar      *string         `json:"avatar,omitempty"`
	IsOnline    bool            `json:"is_online"`
	LastMessage *PrivateMessage `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
}
