package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
)

const (
	fieldImage    = "image"
	fieldCaption  = "caption"
	fieldSymbol   = "symbol"
	fieldInterval = "interval"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// ChartCache stores rendered charts as redis hashes with a per-key expiry.
type ChartCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChartCache(client *redis.Client, ttl time.Duration) *ChartCache {
	return &ChartCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ChartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ChartCache) Get(ctx context.Context, key string) (*domain.ChartSnapshot, error) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	image, ok := fields[fieldImage]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	return &domain.ChartSnapshot{
		Symbol:   fields[fieldSymbol],
		Interval: fields[fieldInterval],
		Image:    []byte(image),
		Caption:  fields[fieldCaption],
	}, nil
}

func (c *ChartCache) Set(ctx context.Context, key string, snapshot *domain.ChartSnapshot) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			fieldImage:    snapshot.Image,
			fieldCaption:  snapshot.Caption,
			fieldSymbol:   snapshot.Symbol,
			fieldInterval: snapshot.Interval,
		})
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (c *ChartCache) Close() error {
	return c.client.Close()
}
