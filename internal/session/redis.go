package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finsearch/finsearch/config"
)

// RedisStore keeps histories in Redis for multi-instance deployments. Each
// session is one JSON-encoded list under session:<id>:history, refreshed to
// the session TTL on every append.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxMessages int
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration, maxMessages int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", cfg.Addr(), err)
	}
	return &RedisStore{client: client, ttl: ttl, maxMessages: maxMessages}, nil
}

func sessionKey(id string) string { return "session:" + id + ":history" }

func (s *RedisStore) Append(ctx context.Context, sessionID, role, content string) error {
	key := sessionKey(sessionID)
	msgs, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	msgs = truncate(append(msgs, Message{Role: role, Content: content}), s.maxMessages)
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	return s.load(ctx, sessionKey(sessionID))
}

func (s *RedisStore) load(ctx context.Context, key string) ([]Message, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(val), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
