package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/dresscode/internal/domain/repository"
)

// Runs against a live server only when REDIS_TEST_ADDR is set.
func TestStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	store := New(rdb, "test_"+uuid.NewString())
	_, err := store.Get(ctx, "users")
	assert.ErrorIs(t, err, repository.ErrBlobNotFound)

	require.NoError(t, store.Put(ctx, "users", []byte(`[]`)))
	got, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, store.Delete(ctx, "users"))
	_, err = store.Get(ctx, "users")
	assert.ErrorIs(t, err, repository.ErrBlobNotFound)
}

func TestStoreKeyPrefix(t *testing.T) {
	assert.Equal(t, "app:users", New(nil, "app").key("users"))
	assert.Equal(t, "users", New(nil, "").key("users"))
}
