package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"knowdex/internal/model"
)

const (
	defaultHistoryTTL = 60 * time.Second
	defaultDirtyTTL   = 5 * time.Second
)

// HistoryCache keeps a chat session's message list in Redis. A short-lived
// dirty marker is set while a send is appending messages so that a concurrent
// reader does not write a stale list back.
type HistoryCache struct {
	client   *redisv9.Client
	ttl      time.Duration
	dirtyTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, ttl, dirtyTTL time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	if dirtyTTL <= 0 {
		dirtyTTL = defaultDirtyTTL
	}
	return &HistoryCache{client: client, ttl: ttl, dirtyTTL: dirtyTTL}
}

// Get reports a hit only when the list is present and no write is in flight.
func (c *HistoryCache) Get(ctx context.Context, sessionID uint) ([]model.Message, bool, error) {
	dirty, err := c.isDirty(ctx, sessionID)
	if err != nil || dirty {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, HistoryKey(sessionID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return messages, true, nil
}

// Set stores the list unless the session was marked dirty meanwhile.
func (c *HistoryCache) Set(ctx context.Context, sessionID uint, messages []model.Message) error {
	dirty, err := c.isDirty(ctx, sessionID)
	if err != nil || dirty {
		return err
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, HistoryKey(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached list and marks the session dirty for dirtyTTL.
func (c *HistoryCache) Invalidate(ctx context.Context, sessionID uint) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Set(ctx, dirtyKey(sessionID), "1", c.dirtyTTL)
		pipe.Del(ctx, HistoryKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) isDirty(ctx context.Context, sessionID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func HistoryKey(sessionID uint) string {
	return fmt.Sprintf("chat:history:%d", sessionID)
}

func dirtyKey(sessionID uint) string {
	return fmt.Sprintf("chat:history:dirty:%d", sessionID)
}
