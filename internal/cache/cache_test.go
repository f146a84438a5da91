package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("rerank", "вопрос", "фрагмент")
	b := Key("rerank", "вопрос", "фрагмент")
	c := Key("rerank", "вопрос", "другой фрагмент")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "rerank:")
}

func TestKey_PartBoundaries(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide.
	assert.NotEqual(t, Key("p", "ab", "c"), Key("p", "a", "bc"))
}

func TestLRUStore(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(2, time.Minute)

	store.Set(ctx, "a", "1")
	store.Set(ctx, "b", "2")

	value, ok := store.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", value)

	// Capacity 2: inserting a third key evicts the least recently used.
	store.Set(ctx, "c", "3")
	_, ok = store.Get(ctx, "b")
	assert.False(t, ok)

	store.Delete(ctx, "a")
	_, ok = store.Get(ctx, "a")
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Set(ctx, "score", "4.0")
	value, ok := store.Get(ctx, "score")
	require.True(t, ok)
	assert.Equal(t, "4.0", value)

	mr.FastForward(2 * time.Hour)
	_, ok = store.Get(ctx, "score")
	assert.False(t, ok)
}

func TestRedisStore_DegradesWhenDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)

	mr.Close()

	// No panics, just misses.
	store.Set(ctx, "k", "v")
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
	store.Delete(ctx, "k")
}

func TestTiered(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	local := NewLRUStore(10, time.Minute)
	shared := NewRedisStore(client, time.Hour)
	tiered := NewTiered(local, shared)

	tiered.Set(ctx, "k", "v")

	value, ok := local.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
	value, ok = shared.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)

	// A shared hit backfills a cold local tier.
	local.Delete(ctx, "k")
	value, ok = tiered.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
	_, ok = local.Get(ctx, "k")
	assert.True(t, ok)

	tiered.Delete(ctx, "k")
	_, ok = tiered.Get(ctx, "k")
	assert.False(t, ok)
}
