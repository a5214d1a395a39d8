package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the shared redis connection used for upstream caching and event publication.
type Client struct {
	Conn *redis.Client
}

func Connect(ctx context.Context, addr, password string, db int) (*Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Client{Conn: conn}, nil
}

// Get returns the cached value and whether the key existed.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.Conn.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *Client) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Conn.Set(ctx, key, value, ttl).Err()
}

// Publish JSON-encodes payload onto channel.
func (c *Client) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.Conn.Publish(ctx, channel, data).Err()
}

func (c *Client) Close() error {
	return c.Conn.Close()
}
