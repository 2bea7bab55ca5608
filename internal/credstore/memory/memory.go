// Package memory es el backend en proceso del credstore (tests, CLI efímera, BFF de un nodo).
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Backend guarda los slots en un go-cache. ttl 0 = sin expiración.
type Backend struct {
	mu sync.Mutex // hace atómico el borrado múltiple de Clear
	c  *gocache.Cache
}

func New(ttl time.Duration) *Backend {
	exp := gocache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	return &Backend{c: gocache.New(exp, time.Minute)}
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.c.Set(key, value, gocache.DefaultExpiration)
	return nil
}

func (b *Backend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		b.c.Delete(k)
	}
	return nil
}

// Len cuenta las keys vivas (tests/métricas).
func (b *Backend) Len() int { return b.c.ItemCount() }
