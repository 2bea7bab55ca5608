// Package redis es el backend distribuido del credstore (BFF con varias réplicas).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix se antepone a todas las keys ("console" -> "console:<ns>:access_token").
	Prefix string
	// TTL de cada slot; 0 = sin expiración.
	TTL time.Duration
}

type Backend struct {
	c      *rdb.Client
	prefix string
	ttl    time.Duration
}

// New conecta y verifica con PING.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	c := rdb.NewClient(&rdb.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("credstore: redis ping failed: %w", err)
	}
	return NewWithClient(c, cfg.Prefix, cfg.TTL), nil
}

// NewWithClient reutiliza un cliente existente.
func NewWithClient(c *rdb.Client, prefix string, ttl time.Duration) *Backend {
	return &Backend{c: c, prefix: prefix, ttl: ttl}
}

func (b *Backend) Name() string { return "redis" }

func (b *Backend) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + ":" + k
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.c.Get(ctx, b.key(key)).Result()
	if errors.Is(err, rdb.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	return b.c.Set(ctx, b.key(key), value, b.ttl).Err()
}

// Delete usa un único DEL con todas las keys (atómico en redis).
func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	return b.c.Del(ctx, full...).Err()
}

func (b *Backend) Close() error { return b.c.Close() }
