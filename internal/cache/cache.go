// Package cache provides a Redis read-through cache for user records.
// Users are immutable after registration, so cached entries never need
// invalidation and only expire by TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assistant-chat/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	UserTTL time.Duration
}

func DefaultConfig() Config {
	return Config{UserTTL: 5 * time.Minute}
}

type Store struct {
	client *goredis.Client
	config Config
}

func New(client *goredis.Client, config Config) *Store {
	return &Store{client: client, config: config}
}

// NewClient dials Redis and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func userKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// GetUser returns the cached user, or (nil, nil) on a miss.
func (c *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, userKey(id)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var u domain.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Store) SetUser(ctx context.Context, u *domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(u.ID), data, c.config.UserTTL).Err()
}

func (c *Store) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
