package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"event_chat/internal/notification"
	"event_chat/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	push   notification.Client
	checks map[string]HealthCheck
	log    logger.Logger
}

func NewHealthHandler(push notification.Client, checks map[string]HealthCheck, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		push:   push,
		checks: checks,
		log:    log,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("Health check failed", "dependency", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	push := "disabled"
	if h.push != nil && h.push.Configured() {
		push = "configured"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":  state,
		"service": "event-chat",
		"checks":  results,
		"push":    push,
	})
}
