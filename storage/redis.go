// Package storage owns the process's Redis connection.
package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/evault-labs/swap-router/config"
)

type RedisStorage struct {
	cfg    config.Config
	client *redis.Client
}

func NewRedisStorage(cfg config.Config) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Username: cfg.Redis.User,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	status := client.Ping(context.Background())
	if status.Err() != nil {
		return nil, fmt.Errorf("fail to connect to redis: %w", status.Err())
	}
	return &RedisStorage{cfg: cfg, client: client}, nil
}

func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
