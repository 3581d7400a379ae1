// Package redis provides a Redis-backed embedding cache shared across
// processes.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
	"github.com/custodia-labs/clausesense/internal/vecmath"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// Default configuration values.
const (
	DefaultTTL       = 7 * 24 * time.Hour
	DefaultKeyPrefix = "clausesense:embedding"
)

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a vector is kept (default: 7 days).
	TTL time.Duration

	// KeyPrefix namespaces the keys (default: clausesense:embedding).
	KeyPrefix string
}

// Cache stores vectors under prefix:model:sha256(text).
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.L().Debug("redis embedding cache ready", zap.String("addr", cfg.Addr))
	return NewWithClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration, prefix string) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Cache{client: client, ttl: ttl, prefix: prefix}
}

// Key returns the Redis key for a model and text.
func (c *Cache) Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + ":" + model + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector and true on a hit.
func (c *Cache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, c.Key(model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}
	return vecmath.Decode(data), true, nil
}

// Set stores a vector with the configured TTL.
func (c *Cache) Set(ctx context.Context, model, text string, vector []float32) error {
	if err := c.client.Set(ctx, c.Key(model, text), vecmath.Encode(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
