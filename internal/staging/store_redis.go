package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "staged-photo:"

// RedisStore shares staged photos between reports service replicas
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, prefix: defaultRedisPrefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Put(ctx context.Context, entry Entry) (string, error) {
	entry.ID = uuid.NewString()
	entry.ExpiresAt = time.Now().Add(s.ttl)

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, s.key(entry.ID), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to stage photo: %w", err)
	}

	return entry.ID, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("corrupt staged photo %s: %w", id, err)
	}
	return &entry, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

var _ Store = (*RedisStore)(nil)
