//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T, ctx context.Context) *Redis {
	t.Helper()

	container, err := rediscontainer.Run(ctx, "docker.io/redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(connStr)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() {
		_ = client.Close()
	})
	require.NoError(t, client.Ping(ctx).Err())

	return NewRedis(client, 500*time.Millisecond)
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	counter := metric.GetCounter()
	require.NotNil(t, counter)
	return counter.GetValue()
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupRedis(t, ctx)

	beforeMisses := counterValue(t, missCounter)
	beforeHits := counterValue(t, hitCounter)

	_, ok := store.Get(ctx, WorkoutsKey("user-1"))
	require.False(t, ok)

	store.Set(ctx, WorkoutsKey("user-1"), []byte(`[{"id":"w-1"}]`), TTLWorkoutList)

	value, ok := store.Get(ctx, WorkoutsKey("user-1"))
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"w-1"}]`, string(value))

	require.InDelta(t, beforeMisses+1, counterValue(t, missCounter), 0.0001)
	require.InDelta(t, beforeHits+1, counterValue(t, hitCounter), 0.0001)

	store.Delete(ctx, WorkoutsKey("user-1"))
	_, ok = store.Get(ctx, WorkoutsKey("user-1"))
	require.False(t, ok)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := setupRedis(t, ctx)

	store.Set(ctx, ProgressKey("user-1"), []byte(`{}`), time.Second)

	_, ok := store.Get(ctx, ProgressKey("user-1"))
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := store.Get(ctx, ProgressKey("user-1"))
		return !ok
	}, 5*time.Second, 200*time.Millisecond)
}

func TestRedisStoreDeletePattern(t *testing.T) {
	ctx := context.Background()
	store := setupRedis(t, ctx)

	store.Set(ctx, WorkoutsKey("user-1"), []byte(`[]`), TTLWorkoutList)
	store.Set(ctx, ProgressKey("user-1"), []byte(`{}`), TTLProgress)
	store.Set(ctx, WorkoutsKey("user-2"), []byte(`[]`), TTLWorkoutList)
	store.Set(ctx, ExercisesAllKey, []byte(`[]`), TTLCatalog)

	store.DeletePattern(ctx, UserPattern("user-1"))

	_, ok := store.Get(ctx, WorkoutsKey("user-1"))
	require.False(t, ok)
	_, ok = store.Get(ctx, ProgressKey("user-1"))
	require.False(t, ok)

	// other users and the catalog survive
	_, ok = store.Get(ctx, WorkoutsKey("user-2"))
	require.True(t, ok)
	_, ok = store.Get(ctx, ExercisesAllKey)
	require.True(t, ok)
}

func TestReadThroughAgainstRedis(t *testing.T) {
	ctx := context.Background()
	store := setupRedis(t, ctx)

	loads := 0
	load := func(ctx context.Context) ([]string, error) {
		loads++
		return []string{"w-1", "w-2"}, nil
	}

	value, source, err := Through(ctx, store, WorkoutsKey("user-9"), TTLWorkoutList, load)
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, source)
	require.Equal(t, []string{"w-1", "w-2"}, value)

	value, source, err = Through(ctx, store, WorkoutsKey("user-9"), TTLWorkoutList, load)
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.Equal(t, []string{"w-1", "w-2"}, value)
	require.Equal(t, 1, loads)

	NewInvalidator(store).InvalidateWorkoutData(ctx, "user-9")

	_, source, err = Through(ctx, store, WorkoutsKey("user-9"), TTLWorkoutList, load)
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, source)
	require.Equal(t, 2, loads)
}

func TestRedisStoreFailsOpenWhenUnreachable(t *testing.T) {
	ctx := context.Background()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	store := NewRedis(client, 200*time.Millisecond)

	// none of these may panic or block past the op timeout
	_, ok := store.Get(ctx, WorkoutsKey("user-1"))
	require.False(t, ok)
	store.Set(ctx, WorkoutsKey("user-1"), []byte(`[]`), TTLWorkoutList)
	store.Delete(ctx, WorkoutsKey("user-1"))
	store.DeletePattern(ctx, UserPattern("user-1"))

	value, source, err := Through(ctx, store, WorkoutsKey("user-1"), TTLWorkoutList,
		func(ctx context.Context) (string, error) { return "from-db", nil })
	require.NoError(t, err)
	require.Equal(t, SourceDatabase, source)
	require.Equal(t, "from-db", value)
}
