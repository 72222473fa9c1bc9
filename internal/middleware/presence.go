package middleware

import (
	"github.com/gin-gonic/gin"

	"event_chat/internal/service"
	"event_chat/pkg/logger"
)

// TrackPresence records the caller as seen. It runs after RequireAuth.
func TrackPresence(presence service.PresenceService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := UserID(c); ok {
			if err := presence.Touch(c.Request.Context(), id); err != nil {
				log.Warn("Failed to record presence", "user_id", id, "error", err)
			}
		}
		c.Next()
	}
}
