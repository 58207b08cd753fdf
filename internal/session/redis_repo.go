package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

const sessionRedisKey = "storefront:session"

// RedisRepository persists the session in Redis with a TTL matching the
// cookie lifetime.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository builds a Redis-backed session repository.
func NewRedisRepository(addr, password string, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

func (r *RedisRepository) Load() (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, err := r.client.Get(ctx, sessionRedisKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session blob: %w", err)
	}
	return &sess, nil
}

func (r *RedisRepository) Save(sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, sessionRedisKey, data, r.ttl).Err()
}

func (r *RedisRepository) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.client.Del(ctx, sessionRedisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
