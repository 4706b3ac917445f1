package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"noteboard-api/domain"
)

type backend interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	InsertTask(ctx context.Context, userID string, task domain.Task) error
	UpdateTask(ctx context.Context, userID string, task domain.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
	DetachTasks(ctx context.Context, userID, noteID string) error
}

// Cache wraps a Storage instance with Redis-backed caching of the board read
// path. Every task write evicts the owner's cached board.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := c.loadBoardFromCache(ctx, userID); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.storeBoard(ctx, userID, tasks)
	return tasks, nil
}

func (c *Cache) InsertTask(ctx context.Context, userID string, task domain.Task) error {
	if err := c.base.InsertTask(ctx, userID, task); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, userID string, task domain.Task) error {
	if err := c.base.UpdateTask(ctx, userID, task); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := c.base.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) DetachTasks(ctx context.Context, userID, noteID string) error {
	if err := c.base.DetachTasks(ctx, userID, noteID); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) loadBoardFromCache(ctx context.Context, userID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, boardCacheKey(userID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(userID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeBoard(ctx context.Context, userID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardCacheKey(userID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardCacheKey(userID)).Result()
}

func boardCacheKey(userID string) string {
	return "board:" + userID
}
