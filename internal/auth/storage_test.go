package auth

import (
	"context"
	"testing"
	"time"

	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStores(t *testing.T) {
	addr := testhelpers.SetupTestRedis(t)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	sessions := NewRedisSessionStorage(rdb, time.Hour)
	missing, err := sessions.Load(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, missing)

	want := &Session{AccessToken: "a", RefreshToken: "r", User: User{ID: "u1", Email: "chef@test.com"}}
	require.NoError(t, sessions.Save(ctx, "k", want))
	got, err := sessions.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, want.User, got.User)
	require.NoError(t, sessions.Delete(ctx, "k"))

	revoked := NewRedisRevocationStore(rdb)
	until := time.Now().Add(time.Minute)
	ok, err := revoked.Claim(ctx, "jti", until)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = revoked.Claim(ctx, "jti", until)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, revoked.Revoke(ctx, "logged-out", until))
	ok, err = revoked.Claim(ctx, "logged-out", until)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRevocationClaimsOnce(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()
	until := time.Now().Add(time.Minute)

	ok, err := store.Claim(ctx, "jti", until)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Claim(ctx, "jti", until)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRevocationExpires(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "old", time.Now().Add(-time.Second)))
	ok, err := store.Claim(ctx, "old", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}
