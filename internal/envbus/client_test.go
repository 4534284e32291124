package envbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/mediawatch/pkg/mediaquery"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func receive(t *testing.T, sub *Subscription) *Event {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for environment event")
	}
	return nil
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.Equal(t, "test-instance", client.Instance())
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})

	t.Run("from URL", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewClientFromURL("redis://"+mr.Addr(), "kiosk")
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("bad URL", func(t *testing.T) {
		_, err := NewClientFromURL("http://nope", "kiosk")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse redis URL")
	})
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and timestamp and stores the environment", func(t *testing.T) {
		client, mr := setupTestClient(t)

		event := &Event{Kind: KindResize, Width: 1024, Height: 768}
		require.NoError(t, client.Publish(ctx, event))

		_, err := uuid.Parse(event.ID)
		assert.NoError(t, err)
		assert.NotZero(t, event.TimestampMs)

		key := EnvironmentKey("test-instance")
		assert.Equal(t, "mediawatch:test-instance:environment", key)
		assert.Equal(t, "1024", mr.HGet(key, "width"))
		assert.Equal(t, "768", mr.HGet(key, "height"))
	})

	t.Run("media and resize merge into one snapshot", func(t *testing.T) {
		client, _ := setupTestClient(t)

		require.NoError(t, client.Publish(ctx, &Event{Kind: KindResize, Width: 800.5, Height: 600}))
		require.NoError(t, client.Publish(ctx, &Event{Kind: KindMedia, Media: "print"}))

		env, err := client.Environment(ctx)
		require.NoError(t, err)
		assert.Equal(t, mediaquery.Environment{Media: "print", Width: 800.5, Height: 600}, env)
	})

	t.Run("print signals do not touch the snapshot", func(t *testing.T) {
		client, mr := setupTestClient(t)

		require.NoError(t, client.Publish(ctx, &Event{Kind: KindBeforePrint}))
		assert.False(t, mr.Exists(EnvironmentKey("test-instance")))
	})

	t.Run("rejects invalid events", func(t *testing.T) {
		client, _ := setupTestClient(t)

		err := client.Publish(ctx, &Event{Kind: "zoom"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid event")
	})
}

func TestEnvironment_NotFound(t *testing.T) {
	client, _ := setupTestClient(t)

	_, err := client.Environment(context.Background())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
}

func TestEnvironment_CorruptHash(t *testing.T) {
	client, mr := setupTestClient(t)
	mr.HSet(EnvironmentKey("test-instance"), "width", "wide")

	_, err := client.Environment(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "invalid width field")
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("receives published events", func(t *testing.T) {
		client, _ := setupTestClient(t)

		sub, err := client.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		published := &Event{Kind: KindMedia, Media: "print"}
		require.NoError(t, client.Publish(ctx, published))

		got := receive(t, sub)
		assert.Equal(t, published.ID, got.ID)
		assert.Equal(t, KindMedia, got.Kind)
		assert.Equal(t, "print", got.Media)
	})

	t.Run("reports malformed messages and continues", func(t *testing.T) {
		client, _ := setupTestClient(t)

		sub, err := client.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		channel := EnvironmentEventsChannel("test-instance")
		require.NoError(t, client.rdb.Publish(ctx, channel, "not json").Err())
		require.NoError(t, client.rdb.Publish(ctx, channel, `{"kind":"zoom"}`).Err())
		require.NoError(t, client.Publish(ctx, &Event{Kind: KindAfterPrint}))

		for i := 0; i < 2; i++ {
			select {
			case err := <-sub.Errors():
				assert.Error(t, err)
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for subscription error")
			}
		}
		assert.Equal(t, KindAfterPrint, receive(t, sub).Kind)
	})

	t.Run("instances are isolated", func(t *testing.T) {
		client, mr := setupTestClient(t)
		other, err := NewClient(&redis.Options{Addr: mr.Addr()}, "other")
		require.NoError(t, err)
		defer other.Close()

		sub, err := client.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, other.Publish(ctx, &Event{Kind: KindResize, Width: 1, Height: 1}))
		require.NoError(t, client.Publish(ctx, &Event{Kind: KindResize, Width: 2, Height: 2}))

		assert.Equal(t, float64(2), receive(t, sub).Width)
	})

	t.Run("close is idempotent and closes channels", func(t *testing.T) {
		client, _ := setupTestClient(t)

		sub, err := client.Subscribe(ctx)
		require.NoError(t, err)

		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())

		select {
		case _, ok := <-sub.Events():
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("events channel not closed")
		}
	})
}
