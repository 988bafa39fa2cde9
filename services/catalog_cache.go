package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"learnstack/logger"
	"learnstack/model"
	"learnstack/utils"
)

const catalogKey = "catalog:active_topics"

// TopicSource is the authoritative catalog store.
type TopicSource interface {
	ActiveTopics(ctx context.Context) ([]model.Topic, error)
}

type catalogEntry struct {
	Topics   []model.Topic `json:"topics"`
	CachedAt time.Time     `json:"cached_at"`
}

// CatalogCache serves the active topics from Redis, falling back to a
// process-local copy when no Redis client is configured. Concurrent misses
// share a single load; a load that began before Invalidate is never stored.
type CatalogCache struct {
	source     TopicSource
	client     *redis.Client
	ttl        time.Duration
	log        *logger.Logger
	group      singleflight.Group
	generation atomic.Uint64

	mu       sync.RWMutex
	local    []model.Topic
	loadedAt time.Time
}

func NewCatalogCache(source TopicSource, client *redis.Client, ttl time.Duration, log *logger.Logger) *CatalogCache {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogCache{source: source, client: client, ttl: ttl, log: log}
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (c *CatalogCache) ActiveTopics(ctx context.Context) ([]model.Topic, error) {
	if c.ttl <= 0 {
		return c.source.ActiveTopics(ctx)
	}
	if topics, ok := c.lookup(ctx); ok {
		utils.TrackCacheLookup("catalog", "hit")
		return topics, nil
	}
	utils.TrackCacheLookup("catalog", "miss")

	gen := c.generation.Load()
	v, err, _ := c.group.Do(catalogKey+":"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		topics, err := c.source.ActiveTopics(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.store(loadCtx, topics)
		}
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Topic), nil
}

func (c *CatalogCache) lookup(ctx context.Context) ([]model.Topic, bool) {
	if c.client == nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.local == nil || time.Since(c.loadedAt) > c.ttl {
			return nil, false
		}
		return c.local, true
	}

	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		utils.TrackError("cache")
		c.log.Warn("catalog cache read failed", "error", err)
		return nil, false
	}
	var entry catalogEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("catalog cache entry unreadable", "error", err)
		return nil, false
	}
	return entry.Topics, true
}

func (c *CatalogCache) store(ctx context.Context, topics []model.Topic) {
	if c.client == nil {
		c.mu.Lock()
		c.local = topics
		c.loadedAt = time.Now()
		c.mu.Unlock()
		return
	}

	data, err := json.Marshal(catalogEntry{Topics: topics, CachedAt: time.Now().UTC()})
	if err != nil {
		c.log.Warn("catalog cache encode failed", "error", err)
		return
	}
	if err := c.setWithRetry(ctx, data); err != nil {
		utils.TrackError("cache")
		c.log.Warn("catalog cache write failed", "error", err)
	}
}

func (c *CatalogCache) setWithRetry(ctx context.Context, data []byte) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (string, error) {
		return c.client.Set(ctx, catalogKey, data, c.ttl).Result()
	}, backoff.WithBackOff(b), backoff.WithMaxTries(3))
	return err
}

// Invalidate drops the cached catalog so the next read hits the store.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	c.generation.Add(1)
	c.mu.Lock()
	c.local = nil
	c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
