package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowdex/internal/model"
)

func newTestCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHistoryCache(client, time.Minute, 5*time.Second), mr
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hit)

	messages := []model.Message{
		{ID: 1, SessionID: 1, Role: model.RoleUser, Content: "hello"},
		{ID: 2, SessionID: 1, Role: model.RoleAssistant, Content: "hi there"},
	}
	require.NoError(t, c.Set(ctx, 1, messages))
	assert.True(t, mr.Exists("chat:history:1"))
	assert.Equal(t, time.Minute, mr.TTL("chat:history:1"))

	got, hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 2)
	assert.Equal(t, "hi there", got[1].Content)
}

func TestHistoryCacheInvalidateBlocksRepopulation(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, 7, []model.Message{{ID: 1, SessionID: 7, Content: "old"}}))
	require.NoError(t, c.Invalidate(ctx, 7))
	assert.False(t, mr.Exists("chat:history:7"))

	require.NoError(t, c.Set(ctx, 7, []model.Message{{ID: 1, SessionID: 7, Content: "stale"}}))
	_, hit, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, hit)

	mr.FastForward(6 * time.Second)
	require.NoError(t, c.Set(ctx, 7, []model.Message{{ID: 1, SessionID: 7, Content: "fresh"}}))
	got, hit, err := c.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "fresh", got[0].Content)
}

func TestHistoryCacheRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, hit, err := c.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, hit)
}
