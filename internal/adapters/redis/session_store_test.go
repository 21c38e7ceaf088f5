package redis

import (
	"context"
	"testing"
	"time"

	"github.com/kec/eventhub/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestSessionStore_SetManyAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, 0)
	ctx := context.Background()
	prefix := testutil.UniquePrefix("redis")

	err := store.SetMany(ctx, map[string]string{
		prefix + "profile": `{"id":"u1"}`,
		prefix + "token":   "tok",
	})
	require.NoError(t, err)

	profile, ok, err := store.Get(ctx, prefix+"profile")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"u1"}`, profile)

	token, ok, err := store.Get(ctx, prefix+"token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	require.NoError(t, store.Delete(ctx, prefix+"profile", prefix+"token"))
}

func TestSessionStore_GetMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, 0)
	_, ok, err := store.Get(context.Background(), testutil.UniquePrefix("redis")+"missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_DeleteIdempotent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, 0)
	ctx := context.Background()
	key := testutil.UniquePrefix("redis") + "token"

	require.NoError(t, store.SetMany(ctx, map[string]string{key: "x"}))
	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx))

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, 100*time.Millisecond)
	ctx := context.Background()
	key := testutil.UniquePrefix("redis") + "token"

	require.NoError(t, store.SetMany(ctx, map[string]string{key: "x"}))
	time.Sleep(200 * time.Millisecond)

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_RejectsEmptyKey(t *testing.T) {
	store := NewSessionStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0)
	ctx := context.Background()

	_, _, err := store.Get(ctx, "")
	require.Error(t, err)
	require.Error(t, store.SetMany(ctx, map[string]string{"": "x"}))
	require.NoError(t, store.SetMany(ctx, nil))
}
