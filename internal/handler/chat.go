package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event_chat/internal/middleware"
	"event_chat/internal/service"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

type ChatHandler struct {
	chatService service.ChatService
	log         logger.Logger
}

func NewChatHandler(chatService service.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) GetEventMessages(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := messagePage(c)
	if !ok {
		return
	}

	messages, err := h.chatService.GetEventMessages(c.Request.Context(), eventID, userID, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

func (h *ChatHandler) SendEventMessage(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	message, err := h.chatService.SendEventMessage(c.Request.Context(), eventID, userID, middleware.UserType(c), req.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message})
}

func (h *ChatHandler) GetEventParticipants(c *gin.Context) {
	eventID, ok := uuidParam(c, "eventId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	participants, err := h.chatService.GetEventParticipants(c.Request.Context(), eventID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "participants": participants})
}

func (h *ChatHandler) GetMyEventChats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chats, err := h.chatService.GetMyEventChats(c.Request.Context(), userID, middleware.UserType(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

func (h *ChatHandler) GetMyPrivateChats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chats, err := h.chatService.GetMyPrivateChats(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

func (h *ChatHandler) GetPrivateMessages(c *gin.Context) {
	otherID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := messagePage(c)
	if !ok {
		return
	}

	messages, err := h.chatService.GetPrivateMessages(c.Request.Context(), userID, otherID, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

func (h *ChatHandler) SendPrivateMessage(c *gin.Context) {
	receiverID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	message, err := h.chatService.SendPrivateMessage(c.Request.Context(), userID, receiverID, req.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message})
}
