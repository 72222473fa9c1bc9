package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        int64                  `json:"id"`
	EventTime time.Time              `json:"event_time"`
	ActorID   *uuid.UUID             `json:"actor_id,omitempty"`
	ActorRole string                 `json:"actor_role"`
	EventID   *uuid.UUID             `json:"event_id,omitempty"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
}

const (
	ActorRoleModerator = "moderator"
	ActorRoleSender    = "sender"
	ActorRoleSystem    = "system"
)

const (
	AuditMessageDeleted = "MESSAGE_DELETED"
	AuditUserMuted      = "USER_MUTED"
	AuditUserUnmuted    = "USER_UNMUTED"
	AuditUserBanned     = "USER_BANNED"
)
