package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NoteListCache stores list pages per owner. Invalidate makes every page cached so
// far for that owner unreachable.
type NoteListCache interface {
	// Generation must be read before querying the store, and passed back to Set.
	Generation(ctx context.Context, userId uuid.UUID) int64
	Get(ctx context.Context, userId uuid.UUID, generation int64, key string) (*dto.ListNotesResponse, bool)
	Set(ctx context.Context, userId uuid.UUID, generation int64, key string, res *dto.ListNotesResponse)
	Invalidate(ctx context.Context, userId uuid.UUID) error
}

// RedisNoteListCache keys pages by a per-owner generation counter. Invalidation is a
// single INCR; stale pages age out through their TTL.
//
// When the INCR fails the owner's pages are deleted instead, and this instance stops
// serving and storing that owner's pages until an INCR succeeds or a TTL passes.
type RedisNoteListCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger

	mu     sync.Mutex
	bypass map[uuid.UUID]time.Time
}

func NewRedisNoteListCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisNoteListCache {
	if rdb == nil {
		panic("cache.NewRedisNoteListCache: redis client is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisNoteListCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
		bypass: make(map[uuid.UUID]time.Time),
	}
}

func generationKey(userId uuid.UUID) string {
	return fmt.Sprintf("notes:gen:%s", userId)
}

func listKey(userId uuid.UUID, generation int64, key string) string {
	return fmt.Sprintf("notes:list:%s:%d:%s", userId, generation, key)
}

func ownerPattern(userId uuid.UUID) string {
	return fmt.Sprintf("notes:list:%s:*", userId)
}

func (c *RedisNoteListCache) bypassed(userId uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.bypass[userId]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.bypass, userId)
		return false
	}
	return true
}

func (c *RedisNoteListCache) Generation(ctx context.Context, userId uuid.UUID) int64 {
	gen, err := c.rdb.Get(ctx, generationKey(userId)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("NoteListCache", "Failed to read generation", map[string]interface{}{"user_id": userId, "error": err})
		}
		return 0
	}
	return gen
}

func (c *RedisNoteListCache) Get(ctx context.Context, userId uuid.UUID, generation int64, key string) (*dto.ListNotesResponse, bool) {
	if c.bypassed(userId) {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, listKey(userId, generation, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("NoteListCache", "Failed to read cached page", map[string]interface{}{"user_id": userId, "error": err})
		}
		return nil, false
	}

	var res dto.ListNotesResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		c.logger.Warn("NoteListCache", "Discarding undecodable cached page", map[string]interface{}{"user_id": userId, "error": err})
		return nil, false
	}
	return &res, true
}

func (c *RedisNoteListCache) Set(ctx context.Context, userId uuid.UUID, generation int64, key string, res *dto.ListNotesResponse) {
	if c.ttl == 0 || res == nil || c.bypassed(userId) {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, listKey(userId, generation, key), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("NoteListCache", "Failed to store page", map[string]interface{}{"user_id": userId, "error": err})
	}
}

func (c *RedisNoteListCache) Invalidate(ctx context.Context, userId uuid.UUID) error {
	incrErr := c.rdb.Incr(ctx, generationKey(userId)).Err()

	c.mu.Lock()
	if incrErr == nil {
		delete(c.bypass, userId)
	} else {
		c.bypass[userId] = time.Now().Add(c.ttl)
	}
	c.mu.Unlock()

	if incrErr == nil {
		return nil
	}

	c.logger.Warn("NoteListCache", "Generation bump failed, purging owner pages", map[string]interface{}{"user_id": userId, "error": incrErr})
	if err := c.purge(ctx, userId); err != nil {
		return fmt.Errorf("invalidate note list cache: %w", errors.Join(incrErr, err))
	}
	return nil
}

// purge deletes every cached page of the owner, whatever its generation.
func (c *RedisNoteListCache) purge(ctx context.Context, userId uuid.UUID) error {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, ownerPattern(userId), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// NoopNoteListCache is used when Redis is not configured; every read misses.
type NoopNoteListCache struct{}

func (NoopNoteListCache) Generation(context.Context, uuid.UUID) int64 { return 0 }

func (NoopNoteListCache) Get(context.Context, uuid.UUID, int64, string) (*dto.ListNotesResponse, bool) {
	return nil, false
}

func (NoopNoteListCache) Set(context.Context, uuid.UUID, int64, string, *dto.ListNotesResponse) {}

func (NoopNoteListCache) Invalidate(context.Context, uuid.UUID) error { return nil }
