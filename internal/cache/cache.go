// Package cache implements the best-effort key/value layer in front of the
// document store: a Redis-backed client, the cache-aside read path, and
// write-side invalidation. Every operation fails open — a degraded cache
// backend is indistinguishable from a miss and never blocks a request.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the key/value contract the read-through and invalidation layers
// build on. Implementations never return errors: backend failures are
// logged and reads degrade to misses.
type Store interface {
	// Get returns the stored bytes and true on a hit. A backend failure
	// reports as a miss.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key with the given TTL. Fire-and-forget.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string)
	// DeletePattern removes all keys matching a glob pattern. Implemented
	// as KEYS + DEL, not atomically; a concurrent read-populate can re-set
	// a key mid-scan, which the TTL bound then covers.
	DeletePattern(ctx context.Context, pattern string)
	// Publish sends payload to a channel for cross-process subscribers.
	Publish(ctx context.Context, channel string, payload []byte)
}

// Redis wraps a Redis client with per-operation timeouts and fail-open
// error handling.
type Redis struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedis constructs a Redis store. opTimeout bounds every round trip so a
// degraded backend cannot stall the read or write path.
func NewRedis(client *redis.Client, opTimeout time.Duration) *Redis {
	if opTimeout <= 0 {
		opTimeout = 500 * time.Millisecond
	}
	return &Redis{client: client, opTimeout: opTimeout}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		missCounter.Inc()
		return nil, false
	}
	if err != nil {
		errorCounter.WithLabelValues("get").Inc()
		log.Printf("cache: get %s: %v", key, err)
		missCounter.Inc()
		return nil, false
	}
	hitCounter.Inc()
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		errorCounter.WithLabelValues("set").Inc()
		log.Printf("cache: set %s: %v", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		errorCounter.WithLabelValues("delete").Inc()
		log.Printf("cache: delete %v: %v", keys, err)
	}
}

func (r *Redis) DeletePattern(ctx context.Context, pattern string) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		errorCounter.WithLabelValues("keys").Inc()
		log.Printf("cache: keys %s: %v", pattern, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		errorCounter.WithLabelValues("delete").Inc()
		log.Printf("cache: delete pattern %s (%d keys): %v", pattern, len(keys), err)
	}
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		errorCounter.WithLabelValues("publish").Inc()
		log.Printf("cache: publish %s: %v", channel, err)
	}
}

// Noop is the stand-in Store when no cache backend is configured; every
// read is a miss and every write is dropped.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)             { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration)     {}
func (Noop) Delete(context.Context, ...string)                      {}
func (Noop) DeletePattern(context.Context, string)                  {}
func (Noop) Publish(context.Context, string, []byte)                {}
