// Package cache provides an optional Redis read-through cache for profile and search lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snapfeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client. A nil *Cache, or one without a client, never hits and never stores.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.CacheLookups.WithLabelValues(cmd.Name(), "error").Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// Connect dials addr, either a redis:// URL or host:port. An empty addr disables caching.
// When Redis is unreachable a disabled cache is returned along with the reason, so callers can warn and continue.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	if strings.TrimSpace(addr) == "" {
		return &Cache{ttl: ttl}, nil
	}
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return &Cache{ttl: ttl}, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return &Cache{ttl: ttl}, fmt.Errorf("redis unreachable, continuing without cache: %w", err)
	}
	return New(client, ttl), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, prefix: "snapfeed:"}
}

// Enabled reports whether lookups can reach Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, b, c.ttl).Err()
}

// Delete drops keys, ignoring misses.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// GetFieldJSON reads one field of the hash at key into dest. Returns (false, nil) on a miss.
func (c *Cache) GetFieldJSON(ctx context.Context, key, field string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.client.HGet(ctx, c.prefix+key, field).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetFieldJSON stores v in one field of the hash at key and restarts the key's TTL.
func (c *Cache) SetFieldJSON(ctx context.Context, key, field string, v any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	full := c.prefix + key
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, full, field, b)
		pipe.Expire(ctx, full, c.ttl)
		return nil
	})
	return err
}

// Aside tries Redis first; on a miss it calls fetch (which must populate dest) and stores dest.
// Redis failures degrade to calling fetch; only fetch errors are returned.
func (c *Cache) Aside(ctx context.Context, name, key string, dest any, fetch func() error) error {
	return c.aside(ctx, name, fetch,
		func() (bool, error) { return c.GetJSON(ctx, key, dest) },
		func() error { return c.SetJSON(ctx, key, dest) })
}

// AsideField is Aside over one field of a hash. Deleting key evicts every field at once.
func (c *Cache) AsideField(ctx context.Context, name, key, field string, dest any, fetch func() error) error {
	return c.aside(ctx, name, fetch,
		func() (bool, error) { return c.GetFieldJSON(ctx, key, field, dest) },
		func() error { return c.SetFieldJSON(ctx, key, field, dest) })
}

func (c *Cache) aside(ctx context.Context, name string, fetch func() error, get func() (bool, error), set func() error) error {
	found, err := get()
	switch {
	case err != nil:
		observability.GlobalLogger.WarnContext(ctx, "cache read failed",
			slog.String("cache", name), slog.String("error", err.Error()))
	case found:
		observability.CacheLookups.WithLabelValues(name, "hit").Inc()
		return nil
	case c.Enabled():
		observability.CacheLookups.WithLabelValues(name, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	// best-effort
	if err := set(); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "cache write failed",
			slog.String("cache", name), slog.String("error", err.Error()))
	}
	return nil
}
