package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Source tags where a read was served from. Diagnostic only; not part of
// the consistency contract.
type Source string

const (
	SourceCache    Source = "cache"
	SourceDatabase Source = "database"
)

// Through implements the cache-aside read path: return the cached value
// under key when present, otherwise load from the source of truth,
// populate the cache with the kind's TTL, and return the loaded value.
//
// Empty results are cached like any other value — an empty collection that
// is re-queried on every request is exactly the stampede the cache exists
// to absorb. A corrupt cached payload is treated as a miss.
func Through[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, Source, error) {
	if raw, ok := store.Get(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, SourceCache, nil
		}
		log.Printf("cache: corrupt entry at %s, reloading", key)
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, SourceDatabase, err
	}

	if raw, err := json.Marshal(value); err == nil {
		store.Set(ctx, key, raw, ttl)
	} else {
		log.Printf("cache: marshal for %s: %v", key, err)
	}
	return value, SourceDatabase, nil
}
