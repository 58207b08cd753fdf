package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

const cartRedisKey = "storefront:cart"

// RedisRepository persists the cart as a JSON blob in Redis.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository builds a Redis-backed cart repository.
func NewRedisRepository(addr, password string) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (r *RedisRepository) Load() ([]domain.LineItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, err := r.client.Get(ctx, cartRedisKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse cart blob: %w", err)
	}
	return items, nil
}

func (r *RedisRepository) Save(items []domain.LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, cartRedisKey, data, 0).Err()
}

func (r *RedisRepository) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.client.Del(ctx, cartRedisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
