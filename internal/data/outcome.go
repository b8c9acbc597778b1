package data

import (
	"context"
	"fmt"
	"time"

	"mediashare/internal/conf"
	"mediashare/internal/pkg/cache"

	"github.com/go-kratos/kratos/v2/log"
	redis "github.com/redis/go-redis/v9"
)

// NewOutcomeCache selects the coalescer outcome cache backend from
// config. Redis makes recorded outcomes visible across instances; the
// in-process cache is per instance only.
func NewOutcomeCache(c *conf.Data, logger log.Logger) (cache.Cache, func(), error) {
	helper := log.NewHelper(logger)

	if c.Cache.Driver != "redis" {
		return cache.NewMemory(), func() {}, nil
	}

	opts := &redis.Options{
		Addr:    c.Cache.Redis.Addr,
		Network: c.Cache.Redis.Network,
	}
	if d := conf.ParseDuration(c.Cache.Redis.ReadTimeout, 0); d > 0 {
		opts.ReadTimeout = d
	}
	if d := conf.ParseDuration(c.Cache.Redis.WriteTimeout, 0); d > 0 {
		opts.WriteTimeout = d
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		helper.Errorf("failed to connect to Redis at %s: %v", c.Cache.Redis.Addr, err)
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	helper.Infof("connected to Redis at %s", c.Cache.Redis.Addr)

	cleanup := func() {
		helper.Info("closing Redis connection")
		client.Close()
	}

	return cache.NewRedis(client), cleanup, nil
}
