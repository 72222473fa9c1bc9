package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event_chat/internal/domain"
	"event_chat/internal/middleware"
	"event_chat/internal/notification"
	"event_chat/internal/service"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChatService struct {
	service.ChatService

	gotPage  service.MessagePage
	gotText  string
	gotType  domain.PrincipalType
	messages []*domain.ChatMessage
	err      error
}

func (s *stubChatService) GetEventMessages(_ context.Context, _, _ uuid.UUID, page service.MessagePage) ([]*domain.ChatMessage, error) {
	s.gotPage = page
	return s.messages, s.err
}

func (s *stubChatService) SendEventMessage(_ context.Context, eventID, senderID uuid.UUID, senderType domain.PrincipalType, text string) (*domain.ChatMessage, error) {
	s.gotText = text
	s.gotType = senderType
	if s.err != nil {
		return nil, s.err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("message is required")
	}
	return &domain.ChatMessage{ID: uuid.New(), EventID: eventID, SenderID: senderID, Message: text, Status: domain.MessageStatusActive}, nil
}

func (s *stubChatService) SendPrivateMessage(_ context.Context, senderID, receiverID uuid.UUID, text string) (*domain.PrivateMessage, error) {
	s.gotText = text
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("message is required")
	}
	return &domain.PrivateMessage{ID: uuid.New(), SenderID: senderID, ReceiverID: receiverID, Message: text}, nil
}

type stubModerationService struct {
	service.ModerationService

	gotDuration *time.Duration
	muted       bool
	err         error
}

func (s *stubModerationService) MuteUserInEvent(_ context.Context, eventID, targetID, moderatorID uuid.UUID, duration *time.Duration) (*domain.EventMute, error) {
	s.gotDuration = duration
	if s.err != nil {
		return nil, s.err
	}
	return &domain.EventMute{EventID: eventID, UserID: targetID, MutedByID: moderatorID}, nil
}

func (s *stubModerationService) DeleteMessage(_ context.Context, messageID, _ uuid.UUID) (*domain.ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ChatMessage{ID: messageID, Status: domain.MessageStatusDeleted, Message: domain.DeletedMessagePlaceholder}, nil
}

func (s *stubModerationService) IsUserMuted(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.muted, s.err
}

type stubAccessService struct {
	access    bool
	moderator bool
}

func (s stubAccessService) HasEventChatAccess(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.access, nil
}

func (s stubAccessService) IsEventModerator(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.moderator, nil
}

// authenticated stands in for RequireAuth.
func authenticated(userID uuid.UUID, userType domain.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserType, userType)
		c.Next()
	}
}

func newRouter(userID uuid.UUID, userType domain.PrincipalType) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.NewNop()))
	r.Use(authenticated(userID, userType))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestChatHandler_GetEventMessages(t *testing.T) {
	chat := &stubChatService{messages: []*domain.ChatMessage{}}
	h := NewChatHandler(chat, logger.NewNop())
	r := newRouter(uuid.New(), domain.PrincipalUser)
	r.GET("/events/:eventId/messages", h.GetEventMessages)

	eventID := uuid.New()
	w := doJSON(r, http.MethodGet, "/events/"+eventID.String()+"/messages?limit=20&before=2026-06-01T18:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "messages")
	assert.Equal(t, 20, chat.gotPage.Limit)
	require.NotNil(t, chat.gotPage.Before)
	assert.True(t, chat.gotPage.Before.Equal(time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)))

	tests := []struct {
		name string
		path string
	}{
		{name: "bad event id", path: "/events/nope/messages"},
		{name: "bad limit", path: "/events/" + eventID.String() + "/messages?limit=ten"},
		{name: "bad before", path: "/events/" + eventID.String() + "/messages?before=yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
		})
	}
}

func TestChatHandler_SendEventMessage(t *testing.T) {
	eventID := uuid.New()

	t.Run("created", func(t *testing.T) {
		chat := &stubChatService{}
		r := newRouter(uuid.New(), domain.PrincipalOrganizer)
		r.POST("/events/:eventId/messages", NewChatHandler(chat, logger.NewNop()).SendEventMessage)

		w := doJSON(r, http.MethodPost, "/events/"+eventID.String()+"/messages", `{"message":"doors open"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		msg := body["message"].(map[string]interface{})
		assert.Equal(t, "doors open", msg["message"])
		assert.Equal(t, domain.PrincipalOrganizer, chat.gotType)
	})

	t.Run("whitespace message", func(t *testing.T) {
		chat := &stubChatService{}
		r := newRouter(uuid.New(), domain.PrincipalUser)
		r.POST("/events/:eventId/messages", NewChatHandler(chat, logger.NewNop()).SendEventMessage)

		w := doJSON(r, http.MethodPost, "/events/"+eventID.String()+"/messages", `{"message":"   "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		chat := &stubChatService{}
		r := newRouter(uuid.New(), domain.PrincipalUser)
		r.POST("/events/:eventId/messages", NewChatHandler(chat, logger.NewNop()).SendEventMessage)

		w := doJSON(r, http.MethodPost, "/events/"+eventID.String()+"/messages", `{"message":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("muted", func(t *testing.T) {
		chat := &stubChatService{err: apperrors.Muted("you are muted in this chat")}
		r := newRouter(uuid.New(), domain.PrincipalUser)
		r.POST("/events/:eventId/messages", NewChatHandler(chat, logger.NewNop()).SendEventMessage)

		w := doJSON(r, http.MethodPost, "/events/"+eventID.String()+"/messages", `{"message":"hi"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "MUTED", body["code"])
	})
}

func TestChatHandler_SendPrivateMessage(t *testing.T) {
	chat := &stubChatService{}
	r := newRouter(uuid.New(), domain.PrincipalUser)
	r.POST("/private/:userId/messages", NewChatHandler(chat, logger.NewNop()).SendPrivateMessage)

	w := doJSON(r, http.MethodPost, "/private/"+uuid.NewString()+"/messages", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/private/"+uuid.NewString()+"/messages", `{"message":"hey"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestModerationHandler_MuteUser(t *testing.T) {
	path := "/moderation/events/" + uuid.NewString() + "/users/" + uuid.NewString() + "/mute"

	t.Run("default duration", func(t *testing.T) {
		mod := &stubModerationService{}
		r := newRouter(uuid.New(), domain.PrincipalOrganizer)
		r.POST("/moderation/events/:eventId/users/:userId/mute", NewModerationHandler(mod, stubAccessService{}, logger.NewNop()).MuteUser)

		w := doJSON(r, http.MethodPost, path, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, mod.gotDuration)
	})

	t.Run("minutes", func(t *testing.T) {
		mod := &stubModerationService{}
		r := newRouter(uuid.New(), domain.PrincipalOrganizer)
		r.POST("/moderation/events/:eventId/users/:userId/mute", NewModerationHandler(mod, stubAccessService{}, logger.NewNop()).MuteUser)

		w := doJSON(r, http.MethodPost, path, `{"duration":15}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, mod.gotDuration)
		assert.Equal(t, 15*time.Minute, *mod.gotDuration)
	})

	t.Run("out of range", func(t *testing.T) {
		for _, body := range []string{`{"duration":0}`, `{"duration":-5}`, `{"duration":525601}`, `{"duration":400000000}`} {
			mod := &stubModerationService{}
			r := newRouter(uuid.New(), domain.PrincipalOrganizer)
			r.POST("/moderation/events/:eventId/users/:userId/mute", NewModerationHandler(mod, stubAccessService{}, logger.NewNop()).MuteUser)

			w := doJSON(r, http.MethodPost, path, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Equal(t, string(apperrors.CodeValidation), decode(t, w)["code"], body)
			assert.Nil(t, mod.gotDuration, body)
		}
	})

	t.Run("one year", func(t *testing.T) {
		mod := &stubModerationService{}
		r := newRouter(uuid.New(), domain.PrincipalOrganizer)
		r.POST("/moderation/events/:eventId/users/:userId/mute", NewModerationHandler(mod, stubAccessService{}, logger.NewNop()).MuteUser)

		w := doJSON(r, http.MethodPost, path, `{"duration":525600}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, mod.gotDuration)
		assert.Equal(t, 365*24*time.Hour, *mod.gotDuration)
	})

	t.Run("forbidden", func(t *testing.T) {
		mod := &stubModerationService{err: apperrors.Forbidden("only the event moderator can perform this action")}
		r := newRouter(uuid.New(), domain.PrincipalUser)
		r.POST("/moderation/events/:eventId/users/:userId/mute", NewModerationHandler(mod, stubAccessService{}, logger.NewNop()).MuteUser)

		w := doJSON(r, http.MethodPost, path, `{"duration":15}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestModerationHandler_DeleteMessage(t *testing.T) {
	route := func(mod *stubModerationService) *gin.Engine {
		r := newRouter(uuid.New(), domain.PrincipalOrganizer)
		r.DELETE("/moderation/messages/:id", NewModerationHandler(mod, stubAccessService{}, logger.NewNop()).DeleteMessage)
		return r
	}

	w := doJSON(route(&stubModerationService{}), http.MethodDelete, "/moderation/messages/"+uuid.NewString(), "")
	require.Equal(t, http.StatusOK, w.Code)
	message := decode(t, w)["message"].(map[string]interface{})
	assert.Equal(t, domain.DeletedMessagePlaceholder, message["message"])
	assert.Equal(t, string(domain.MessageStatusDeleted), message["status"])

	w = doJSON(route(&stubModerationService{err: apperrors.AlreadyDeleted("message already deleted")}), http.MethodDelete, "/moderation/messages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperrors.CodeAlreadyDeleted), decode(t, w)["code"])

	w = doJSON(route(&stubModerationService{}), http.MethodDelete, "/moderation/messages/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerationHandler_GetUserStatus(t *testing.T) {
	me := uuid.New()
	eventID := uuid.New()

	route := func(access stubAccessService) *gin.Engine {
		r := newRouter(me, domain.PrincipalUser)
		r.GET("/moderation/events/:eventId/users/:userId/status",
			NewModerationHandler(&stubModerationService{muted: true}, access, logger.NewNop()).GetUserStatus)
		return r
	}

	w := doJSON(route(stubAccessService{}), http.MethodGet, "/moderation/events/"+eventID.String()+"/users/"+me.String()+"/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["muted"])

	other := uuid.NewString()
	w = doJSON(route(stubAccessService{}), http.MethodGet, "/moderation/events/"+eventID.String()+"/users/"+other+"/status", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(route(stubAccessService{moderator: true}), http.MethodGet, "/moderation/events/"+eventID.String()+"/users/"+other+"/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

type stubPush struct{ configured bool }

func (p stubPush) Configured() bool { return p.configured }

func (p stubPush) Send(context.Context, notification.Notification) error { return nil }

func TestHealthHandler_Check(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return context.DeadlineExceeded }

	r := gin.New()
	r.GET("/health", NewHealthHandler(stubPush{configured: true}, map[string]HealthCheck{"database": ok, "redis": ok}, logger.NewNop()).Check)
	r.GET("/degraded", NewHealthHandler(nil, map[string]HealthCheck{"database": ok, "redis": down}, logger.NewNop()).Check)

	w := doJSON(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "configured", body["push"])

	w = doJSON(r, http.MethodGet, "/degraded", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body = decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unavailable", body["checks"].(map[string]interface{})["redis"])
	assert.Equal(t, "disabled", body["push"])
}
