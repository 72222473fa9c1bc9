package handler

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"event_chat/internal/config"
	"event_chat/internal/notification"
	"event_chat/internal/service"
	"event_chat/pkg/logger"
)

type Handlers struct {
	Health     *HealthHandler
	Chat       *ChatHandler
	Moderation *ModerationHandler
	WebSocket  *WebSocketHandler
}

func NewHandlers(
	services *service.Services,
	hub *Hub,
	db *pgxpool.Pool,
	rdb *redis.Client,
	push notification.Client,
	cfg *config.Config,
	log logger.Logger,
) *Handlers {
	checks := map[string]HealthCheck{
		"database": db.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}

	return &Handlers{
		Health:     NewHealthHandler(push, checks, log),
		Chat:       NewChatHandler(services.Chat, log),
		Moderation: NewModerationHandler(services.Moderation, services.Access, log),
		WebSocket:  NewWebSocketHandler(hub, services.Access, cfg.Server.AllowedOrigins, log),
	}
}
