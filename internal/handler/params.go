package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"event_chat/internal/middleware"
	"event_chat/internal/service"
	apperrors "event_chat/pkg/errors"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid " + name))
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("user not authenticated"))
		return uuid.Nil, false
	}
	return id, true
}

// messagePage reads ?limit and ?before (RFC 3339). Out-of-range limits are
// clamped by the service.
func messagePage(c *gin.Context) (service.MessagePage, bool) {
	var page service.MessagePage

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("limit must be a number"))
			return page, false
		}
		page.Limit = limit
	}

	if raw := c.Query("before"); raw != "" {
		before, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("before must be an RFC 3339 timestamp"))
			return page, false
		}
		page.Before = &before
	}

	return page, true
}
