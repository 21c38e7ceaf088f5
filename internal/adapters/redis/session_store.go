package redis

// Package redis provides Redis-based adapters for the eventhub portal.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kec/eventhub/internal/ports"
	"github.com/redis/go-redis/v9"
)

var _ ports.KeyValueStore = (*SessionStore)(nil)

// SessionStore is a Redis-based KeyValueStore for the persisted session records.
// Multi-key writes go through MULTI/EXEC so both records land together.
type SessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSessionStore creates a new Redis-based store. A zero ttl keeps keys until deleted.
func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

func (s *SessionStore) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	for k := range entries {
		if k == "" {
			return errors.New("key cannot be empty")
		}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, k, v, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis multi set: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
