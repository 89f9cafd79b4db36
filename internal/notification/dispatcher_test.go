package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDispatcherPublishes(t *testing.T) {
	addr := testhelpers.SetupTestRedis(t)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	d := NewRedisDispatcher(rdb, "test")
	sub := rdb.Subscribe(ctx, d.Channel("u1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n := New(d, nil)
	n.Send(ctx, "u1", "Oi", "Mensagem", map[string]any{"type": "welcome"})

	select {
	case msg := <-sub.Channel():
		var got Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "Oi", got.Title)
		assert.Equal(t, "welcome", got.Data["type"])
	case <-time.After(5 * time.Second):
		t.Fatal("notification not published")
	}

	require.NoError(t, rdb.Set(ctx, "test:optout:u2", "1", 0).Err())
	assert.False(t, n.RequestPermissions(ctx, "u2"))
}

func TestLogDispatcherAllowsEveryone(t *testing.T) {
	d := NewLogDispatcher(nil)
	ok, err := d.RequestPermission(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, d.Dispatch(context.Background(), Notification{Title: "x"}))
}
