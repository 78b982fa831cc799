package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/models"
)

const scheduleCacheKey = "campmeeting:schedule"

// cachedScheduleRepository is a read-through Redis cache in front of a ScheduleRepository.
// Redis failures are logged and the underlying repository is used instead.
type cachedScheduleRepository struct {
	next   ScheduleRepository
	redis  redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedScheduleRepository wraps next with a Redis cache. A nil client returns next unchanged.
func NewCachedScheduleRepository(next ScheduleRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) ScheduleRepository {
	if client == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedScheduleRepository{next: next, redis: client, ttl: ttl, logger: logger}
}

func (r *cachedScheduleRepository) List(ctx context.Context) ([]models.ScheduledSession, error) {
	raw, err := r.redis.Get(ctx, scheduleCacheKey).Bytes()
	switch {
	case err == nil:
		var sessions []models.ScheduledSession
		jerr := json.Unmarshal(raw, &sessions)
		if jerr == nil {
			return sessions, nil
		}
		r.logger.Warn("Discarding unreadable cached schedule", zap.Error(jerr))
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("Schedule cache read failed", zap.Error(err))
	}

	sessions, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		r.logger.Warn("Failed to encode schedule for cache", zap.Error(err))
		return sessions, nil
	}
	if err := r.redis.Set(ctx, scheduleCacheKey, data, r.ttl).Err(); err != nil {
		r.logger.Warn("Schedule cache write failed", zap.Error(err))
	}
	return sessions, nil
}
