package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mr-Cheen1/todo-list/domain"
)

type backend interface {
	ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (int64, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// Cache wraps a Storage with Redis-backed caching of list queries. Mutations
// bump a namespace version instead of enumerating keys, which drops every
// cached listing at once. Redis failures degrade to the backing storage.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error) {
	key, usable := c.listKey(ctx, q)
	if usable {
		if tasks, ok := c.load(ctx, key); ok {
			return tasks, nil
		}
	}

	tasks, err := c.base.ListTasks(ctx, q)
	if err != nil {
		return nil, err
	}
	if usable {
		c.store(ctx, key, tasks)
	}
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, t domain.Task) (int64, error) {
	id, err := c.base.CreateTask(ctx, t)
	if err != nil {
		return 0, err
	}
	c.evict(ctx)
	return id, nil
}

func (c *Cache) UpdateTask(ctx context.Context, t domain.Task) error {
	if err := c.base.UpdateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id int64) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

const listVersionKey = "tasks:version"

func (c *Cache) listKey(ctx context.Context, q domain.ListQuery) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	version, err := c.redis.Get(ctx, listVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", false
	}
	return fmt.Sprintf("tasks:%d:%s", version, queryKey(q)), true
}

func queryKey(q domain.ListQuery) string {
	status := "all"
	if q.Status != nil {
		status = strconv.Itoa(int(*q.Status))
	}
	field := q.Field
	if field == "" {
		field = domain.DefaultSortField
	}
	order := q.Order
	if order == "" {
		order = domain.SortAsc
	}
	return fmt.Sprintf("%s:%s:%s", status, order, field)
}

func (c *Cache) load(ctx context.Context, key string) ([]domain.Task, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, key string, tasks []domain.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Incr(ctx, listVersionKey).Err()
}
