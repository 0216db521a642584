package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/deepstock/pkg/adapters/redis"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunSecretStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Set(ctx, domain.CredentialKey, "secret")
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:gemini_api_key"), "Expected key with custom prefix to exist")

	got, err := mr.Get("custom:app:gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	store, mr := newStore(t, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))

	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	ctx := context.Background()
	_, err := store.Get(ctx, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.Error(t, store.Ping(ctx))
}
