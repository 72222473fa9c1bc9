package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"event_chat/internal/service"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

type ModerationHandler struct {
	moderationService service.ModerationService
	accessService     service.AccessService
	log               logger.Logger
}

func NewModerationHandler(moderationService service.ModerationService, accessService service.AccessService, log logger.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		accessService:     accessService,
		log:               log,
	}
}

// maxMuteMinutes caps timed mutes at one year. Longer restrictions are bans.
const maxMuteMinutes = 365 * 24 * 60

// MuteRequest carries the mute length in minutes. Omitting it applies the
// configured default.
type MuteRequest struct {
	Duration *int `json:"duration"`
}

func (h *ModerationHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	message, err := h.moderationService.DeleteMessage(c.Request.Context(), messageID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (h *ModerationHandler) MuteUser(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	var duration *time.Duration
	if req.Duration != nil {
		if *req.Duration <= 0 || *req.Duration > maxMuteMinutes {
			_ = c.Error(apperrors.Validation(fmt.Sprintf("duration must be between 1 and %d minutes", maxMuteMinutes)))
			return
		}
		d := time.Duration(*req.Duration) * time.Minute
		duration = &d
	}

	mute, err := h.moderationService.MuteUserInEvent(c.Request.Context(), eventID, targetID, userID, duration)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "mute": mute})
}

func (h *ModerationHandler) UnmuteUser(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.moderationService.UnmuteUserInEvent(c.Request.Context(), eventID, targetID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ModerationHandler) BanUser(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ban, err := h.moderationService.BanUserFromEvent(c.Request.Context(), eventID, targetID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "mute": ban})
}

func (h *ModerationHandler) GetMutedUsers(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	mutes, err := h.moderationService.GetMutedUsers(c.Request.Context(), eventID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "mutes": mutes})
}

func (h *ModerationHandler) GetBannedUsers(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	bans, err := h.moderationService.GetBannedUsers(c.Request.Context(), eventID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bans": bans})
}

func (h *ModerationHandler) GetModerationLog(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	log, err := h.moderationService.GetModerationLog(c.Request.Context(), eventID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"deleted_messages": log.DeletedMessages,
		"mutes":            log.Mutes,
		"actions":          log.Actions,
	})
}

// GetUserStatus answers whether a user may currently post. Users can ask
// about themselves; asking about others needs moderator rights.
func (h *ModerationHandler) GetUserStatus(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if targetID != userID {
		isModerator, err := h.accessService.IsEventModerator(c.Request.Context(), eventID, userID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if !isModerator {
			_ = c.Error(apperrors.Forbidden("only the event moderator can perform this action"))
			return
		}
	}

	muted, err := h.moderationService.IsUserMuted(c.Request.Context(), eventID, targetID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": targetID, "muted": muted})
}
