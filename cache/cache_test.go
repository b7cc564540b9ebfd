package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLocal(t *testing.T, cfg CacheConfig) *Backend {
	t.Helper()
	b, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestOpen_LocalFallback(t *testing.T) {
	b := openLocal(t, CacheConfig{LocalGCInterval: time.Minute})
	assert.False(t, b.Redis)
	ctx := context.Background()

	_, err := b.Cache.Get(ctx, "GJTracker")
	assert.True(t, IsNotFound(err))

	require.NoError(t, b.Cache.Set(ctx, "GJTracker", "{}", 0))
	v, err := b.Cache.Get(ctx, "GJTracker")
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	for _, e := range []string{"a", "b", "c"} {
		require.NoError(t, b.Cache.PushCapped(ctx, "gjtracker:audit", e, 2))
	}
	got, err := b.Cache.Newest(ctx, "gjtracker:audit", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, got)
}

func TestIsNotFound_Wrapped(t *testing.T) {
	b := openLocal(t, CacheConfig{})
	_, err := b.Cache.Get(context.Background(), "x")
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", err)))
	assert.False(t, IsNotFound(assert.AnError))
}

func TestOpen_LocalBusForwards(t *testing.T) {
	b := openLocal(t, CacheConfig{LocalPubSubBuf: 4})
	ctx := context.Background()

	ch, cancel, err := b.PubSub.Subscribe(ctx, ChangesChannel)
	require.NoError(t, err)

	require.NoError(t, b.PubSub.Publish(ctx, ChangesChannel, `{"kind":"evolved"}`))
	select {
	case msg := <-ch:
		assert.Equal(t, ChangesChannel, msg.Channel)
		assert.Equal(t, `{"kind":"evolved"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message forwarded")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	_, err := Open(CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
