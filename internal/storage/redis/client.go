package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func NewClient(opts Options) *Client {
	return &Client{
		Client: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: opts.DialTimeout,
		}),
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	const op = "storage.redis.HealthCheck"

	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
