package redis

import (
	"context"

	"github.com/studyflow/studyflow/internal/domain/schedule"
	"github.com/studyflow/studyflow/internal/domain/shared"
	"github.com/studyflow/studyflow/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE CACHE
// Implements query.ScheduleCache and command.CacheInvalidator. Redis failures
// are logged and swallowed: a broken cache must never break a read or a write.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleCache caches daily schedule views per user and date.
type ScheduleCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewScheduleCache creates a ScheduleCache.
func NewScheduleCache(cache *Cache, log *logger.Logger) *ScheduleCache {
	if log == nil {
		log = logger.Default()
	}
	return &ScheduleCache{
		cache: cache,
		log:   log.With(logger.Component("schedule_cache")),
	}
}

// GetSchedule returns the cached blocks for (user, date), if present.
func (s *ScheduleCache) GetSchedule(ctx context.Context, userID shared.UserID, key shared.DateKey) ([]*schedule.Block, bool) {
	var blocks []*schedule.Block
	err := s.cache.Get(ctx, ScheduleKey(userID.String(), key.String()), &blocks)
	if err != nil {
		if err != ErrCacheMiss {
			s.log.Warn("schedule cache read failed", logger.Err(err))
		}
		return nil, false
	}
	return blocks, true
}

// SetSchedule stores the blocks for (user, date).
func (s *ScheduleCache) SetSchedule(ctx context.Context, userID shared.UserID, key shared.DateKey, blocks []*schedule.Block) {
	err := s.cache.Set(ctx, ScheduleKey(userID.String(), key.String()), blocks, TTLScheduleCache)
	if err != nil {
		s.log.Warn("schedule cache write failed", logger.Err(err))
	}
}

// InvalidateSchedule drops the cached view after a write changed it.
func (s *ScheduleCache) InvalidateSchedule(ctx context.Context, userID shared.UserID, key shared.DateKey) {
	err := s.cache.Delete(ctx, ScheduleKey(userID.String(), key.String()))
	if err != nil {
		s.log.Warn("schedule cache invalidation failed", logger.Err(err))
	}
}
