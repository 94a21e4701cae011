// Package redis connects the optional Redis backend used for token revocation.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bankcore/internal/platform/config"
)

// Client is a go-redis client that can report its own health.
type Client struct {
	*redis.Client
}

// New dials Redis and pings it once, bounded by the dial timeout.
// It returns a nil Client and no error when no URL is configured, in which
// case callers fall back to in-memory revocation.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	rdb := redis.NewClient(opts)
	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb}, nil
}

// Health backs the /healthz check.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
