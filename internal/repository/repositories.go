package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"event_chat/pkg/logger"
)

// dbtx is the part of *pgxpool.Pool the repositories use.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ dbtx = (*pgxpool.Pool)(nil)

type Repositories struct {
	Event          EventRepository
	User           UserRepository
	Chat           ChatRepository
	PrivateMessage PrivateMessageRepository
	Mute           MuteRepository
	Social         SocialRepository
	Presence       PresenceRepository
	Audit          AuditRepository
	RateLimit      RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		Event:          NewEventRepository(db, log),
		User:           NewUserRepository(db, log),
		Chat:           NewChatRepository(db, log),
		PrivateMessage: NewPrivateMessageRepository(db, log),
		Mute:           NewMuteRepository(db, log),
		Social:         NewSocialRepository(db, log),
		Presence:       NewPresenceRepository(redis, log),
		Audit:          NewAuditRepository(db, log),
		RateLimit:      NewRateLimitRepository(redis, log),
	}

	log.Info("Repositories initialized")

	return repos
}
