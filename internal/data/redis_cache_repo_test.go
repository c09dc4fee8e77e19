package data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis connects to a local Redis instance, skipping the test when
// none is reachable. REDIS_TEST_ADDR overrides the default address.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}

func TestRedisCacheRepo_SetGet(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))
	ctx := context.Background()

	err := repo.Set(ctx, "keys:test", []byte(`{"kid":"abc"}`), time.Minute)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "keys:test")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"kid":"abc"}`), got)
}

func TestRedisCacheRepo_GetMissing(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))

	got, err := repo.Get(context.Background(), "keys:missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheRepo_Expiry(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))
	ctx := context.Background()

	err := repo.Set(ctx, "keys:short", []byte("v"), 50*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	got, err := repo.Get(ctx, "keys:short")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheRepo_Delete(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "keys:del", []byte("v"), time.Minute))

	deleted, err := repo.Delete(ctx, "keys:del")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "keys:del")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRedisCacheRepo_Exists(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "keys:exists")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Set(ctx, "keys:exists", []byte("v"), time.Minute))

	exists, err = repo.Exists(ctx, "keys:exists")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))
	ctx := context.Background()

	assert.Error(t, repo.Set(ctx, "", []byte("v"), time.Minute))

	_, err := repo.Get(ctx, "")
	assert.Error(t, err)

	_, err = repo.Delete(ctx, "")
	assert.Error(t, err)

	_, err = repo.Exists(ctx, "")
	assert.Error(t, err)
}

func TestRedisCacheRepo_Health(t *testing.T) {
	repo := NewRedisCacheRepo(setupTestRedis(t))
	assert.NoError(t, repo.Health(context.Background()))
}
