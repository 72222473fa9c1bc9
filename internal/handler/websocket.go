package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"event_chat/internal/service"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

type WebSocketHandler struct {
	hub           *Hub
	accessService service.AccessService
	upgrader      websocket.Upgrader
	log           logger.Logger
}

func NewWebSocketHandler(hub *Hub, accessService service.AccessService, allowedOrigins string, log logger.Logger) *WebSocketHandler {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	allowAll := slices.Contains(origins, "*")

	return &WebSocketHandler{
		hub:           hub,
		accessService: accessService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowAll || slices.Contains(origins, origin)
			},
		},
		log: log,
	}
}

// HandleEvent streams live changes of one event chat. The access check runs
// before the upgrade so refusals are plain JSON errors.
func (h *WebSocketHandler) HandleEvent(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	allowed, err := h.accessService.HasEventChatAccess(c.Request.Context(), eventID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !allowed {
		_ = c.Error(apperrors.Forbidden("no access to this event chat"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection", "event_id", eventID, "error", err)
		return
	}

	h.hub.Serve(eventID, userID, conn)
}
