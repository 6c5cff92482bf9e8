package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Keys of derived read models. Any blog write invalidates all of them.
const (
	KeySitemap    = "blog:sitemap"
	KeyCategories = "blog:categories"
	KeyTags       = "blog:tags"
)

// keyGeneration counts invalidations. A value loaded under an older
// generation is never stored.
const keyGeneration = "blog:generation"

var AllKeys = []string{KeySitemap, KeyCategories, KeyTags}

var errStale = errors.New("cache invalidated during load")

// Cache is a thin JSON layer over redis. A nil *Cache is valid and behaves as
// an always-empty cache, so callers never need to branch on whether redis is
// configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redisURL. An empty URL disables caching and returns nil.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON decodes the cached value into dest. It reports false on a miss or
// on any redis error; errors are logged and treated as misses.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return false
	}
	return true
}

// Generation returns the invalidation counter to pass to SetJSON. Read it
// before loading the value to cache. It is -1 when redis cannot be read.
func (c *Cache) Generation(ctx context.Context) int64 {
	if c == nil {
		return -1
	}

	gen, err := c.client.Get(ctx, keyGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		log.Warn().Err(err).Msg("Cache generation read failed")
		return -1
	}
	return gen
}

// SetJSON stores value under key unless an invalidation happened after gen
// was read. It reports whether the value was stored.
func (c *Cache) SetJSON(ctx context.Context, key string, gen int64, value any) bool {
	if c == nil || gen < 0 {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cannot encode cache entry")
		return false
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, keyGeneration).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, keyGeneration)

	switch {
	case err == nil:
		return true
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		log.Debug().Str("key", key).Msg("Skipping cache write of a stale value")
	default:
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return false
}

// Invalidate drops keys, defaulting to every derived read model, and bumps
// the generation so loads already in flight are not stored.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil {
		return
	}
	if len(keys) == 0 {
		keys = AllKeys
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.Incr(ctx, keyGeneration)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
