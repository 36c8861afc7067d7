package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore shares drafts between workstations. Values are the same JSON
// the file store writes; keys expire after ttl (0 keeps them forever).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Load(ctx context.Context, uid string) (*Draft, error) {
	val, err := s.client.Get(ctx, Key(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDraft
		}
		return nil, fmt.Errorf("redis get draft %s: %w", uid, err)
	}
	var d Draft
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", uid, err)
	}
	return &d, nil
}

func (s *RedisStore) Save(ctx context.Context, d Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, Key(d.UID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft %s: %w", d.UID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, uid string) error {
	if err := s.client.Del(ctx, Key(uid)).Err(); err != nil {
		return fmt.Errorf("redis del draft %s: %w", uid, err)
	}
	return nil
}

// List scans the draft keyspace, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Draft, error) {
	var out []Draft
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		d, err := s.Load(ctx, strings.TrimPrefix(key, KeyPrefix))
		if err != nil {
			continue
		}
		out = append(out, *d)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan drafts: %w", err)
	}
	sortNewest(out)
	return out, nil
}
