// Package credfactory abre el backend del credstore indicado por la config.
package credfactory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojohn-admin/internal/config"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	cfile "github.com/dropDatabas3/hellojohn-admin/internal/credstore/file"
	cmem "github.com/dropDatabas3/hellojohn-admin/internal/credstore/memory"
	cpg "github.com/dropDatabas3/hellojohn-admin/internal/credstore/pg"
	credis "github.com/dropDatabas3/hellojohn-admin/internal/credstore/redis"
	"github.com/dropDatabas3/hellojohn-admin/internal/observability/logger"
)

// Opened es un Store listo más la función que libera el backend.
type Opened struct {
	Store *credstore.Store
	Close func()
}

// Open crea el backend, el sealer (si hay seal_key) y el Store.
func Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	var (
		backend credstore.Backend
		closeFn = func() {}
	)
	switch strings.ToLower(cfg.Store.Driver) {
	case "redis":
		b, err := credis.New(ctx, credis.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
			TTL:      config.Duration(cfg.Store.Redis.TTL, 0),
		})
		if err != nil {
			return nil, err
		}
		backend, closeFn = b, func() { _ = b.Close() }
	case "postgres", "pg":
		b, err := cpg.Open(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := b.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("credstore: pg schema: %w", err)
		}
		backend, closeFn = b, b.Close
	case "file":
		b, err := cfile.New(cfg.Store.File.Path)
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		backend = cmem.New(config.Duration(cfg.Store.Memory.TTL, 0))
	}

	opts := []credstore.Option{credstore.WithTimeout(config.Duration(cfg.Store.Timeout, 3*time.Second))}
	if cfg.Store.SealKey != "" {
		sealer, err := credstore.NewSealer(cfg.Store.SealKey)
		if err != nil {
			closeFn()
			return nil, err
		}
		opts = append(opts, credstore.WithSealer(sealer))
	}
	logger.From(ctx).Debug("credential store opened", logger.Component("credfactory"), logger.Backend(backend.Name()), logger.Bool("sealed", cfg.Store.SealKey != ""))
	return &Opened{Store: credstore.New(backend, opts...), Close: closeFn}, nil
}
