package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"event_chat/pkg/logger"
)

const (
	presenceKeyPrefix = "presence:user:%s"
	// presence entries outlive any online window by a wide margin
	presenceTTL = 30 * 24 * time.Hour
)

// PresenceRepository stores each user's last-seen instant in Redis.
type PresenceRepository interface {
	Touch(ctx context.Context, userID uuid.UUID, at time.Time) error
	// LastSeen returns the known last-seen instants; unknown users are absent.
	LastSeen(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
}

type presenceRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewPresenceRepository(rdb *redis.Client, log logger.Logger) PresenceRepository {
	return &presenceRepository{rdb: rdb, log: log}
}

func presenceKey(userID uuid.UUID) string {
	return fmt.Sprintf(presenceKeyPrefix, userID.String())
}

func (r *presenceRepository) Touch(ctx context.Context, userID uuid.UUID, at time.Time) error {
	err := r.rdb.Set(ctx, presenceKey(userID), at.UnixMilli(), presenceTTL).Err()
	if err != nil {
		r.log.Error("Failed to touch presence", "error", err, "user_id", userID)
		return fmt.Errorf("failed to touch presence: %w", err)
	}
	return nil
}

func (r *presenceRepository) LastSeen(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	result := make(map[uuid.UUID]time.Time, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKey(id)
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		r.log.Error("Failed to read presence", "error", err)
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			r.log.Warn("Malformed presence value", "key", keys[i], "value", raw)
			continue
		}
		result[userIDs[i]] = time.UnixMilli(millis)
	}

	return result, nil
}
