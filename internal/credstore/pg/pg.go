// Package pg es el backend Postgres del credstore: sesiones del BFF que
// sobreviven reinicios sin depender de redis.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema crea la tabla de credenciales. EnsureSchema la aplica de forma idempotente.
const Schema = `
CREATE TABLE IF NOT EXISTS console_credentials (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Backend struct {
	pool *pgxpool.Pool
}

// Open crea el pool y verifica la conexión.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("credstore: pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("credstore: pg ping: %w", err)
	}
	return &Backend{pool: pool}, nil
}

// NewWithPool reutiliza un pool existente.
func NewWithPool(pool *pgxpool.Pool) *Backend { return &Backend{pool: pool} }

func (b *Backend) Name() string { return "pg" }

func (b *Backend) EnsureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, Schema)
	return err
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := b.pool.QueryRow(ctx, `SELECT value FROM console_credentials WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO console_credentials (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	return err
}

// Delete borra todas las keys en un único statement.
func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := b.pool.Exec(ctx, `DELETE FROM console_credentials WHERE key = ANY($1)`, keys)
	return err
}

func (b *Backend) Close() { b.pool.Close() }
