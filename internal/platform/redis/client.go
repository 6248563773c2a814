// Package redis opens the connection that keeps last-known ledger stats
// across restarts.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"landledger/internal/platform/config"
)

// Client is the stats snapshot connection. Health backs the "redis" entry of
// /health.
type Client struct {
	*redis.Client
}

// New dials and pings the snapshot cache. With no URL configured it returns
// (nil, nil) and the server keeps snapshots in process.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPool(opts, cfg)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("stats snapshot cache unreachable: %w", err)
	}
	return &Client{Client: client}, nil
}

// applyPool overrides URL-derived settings only where config sets a value.
func applyPool(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("stats snapshot cache: %w", err)
	}
	return nil
}
