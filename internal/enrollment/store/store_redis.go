package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"facepay/internal/enrollment/models"
)

// DefaultRedisKey is the hash holding all enrollments, field = identity key.
const DefaultRedisKey = "facepay:enrollments"

// RedisStore keeps enrollments in one Redis hash so the service can run on
// several replicas. HSETNX gives the one-enrollment-per-identity guarantee.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedis constructs a Redis-backed enrollment store.
func NewRedis(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Insert(ctx context.Context, identity *models.EnrolledIdentity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal enrollment: %w", err)
	}
	created, err := s.client.HSetNX(ctx, s.key, identity.IdentityKey, payload).Result()
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	if !created {
		return ErrAlreadyEnrolled
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.EnrolledIdentity, error) {
	payload, err := s.client.HGet(ctx, s.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	var identity models.EnrolledIdentity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return nil, fmt.Errorf("decode enrollment: %w", err)
	}
	return &identity, nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear enrollments: %w", err)
	}
	return nil
}
