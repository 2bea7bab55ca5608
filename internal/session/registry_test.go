package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-admin/internal/credstore"
	"github.com/dropDatabas3/hellojohn-admin/internal/credstore/memory"
	"github.com/dropDatabas3/hellojohn-admin/internal/nav"
)

func TestRegistry_OneManagerPerSID(t *testing.T) {
	backend := memory.New(0)
	reg := NewRegistry(credstore.New(backend), &fakeAuth{grant: johnGrant()}, 0)

	_, err := reg.Get(context.Background(), " ")
	require.ErrorIs(t, err, ErrNoSession)

	var wg sync.WaitGroup
	got := make([]*Manager, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := reg.Get(context.Background(), "sid-1")
			assert.NoError(t, err)
			got[i] = m
		}(i)
	}
	wg.Wait()
	for _, m := range got {
		assert.Same(t, got[0], m)
	}
	assert.Equal(t, 1, reg.Len())

	other, err := reg.Get(context.Background(), "sid-2")
	require.NoError(t, err)
	assert.NotSame(t, got[0], other)
	assert.Equal(t, "sess:sid-2", other.Store().Namespace())
}

func TestRegistry_SessionsAreIsolatedAndSurviveForget(t *testing.T) {
	base := credstore.New(memory.New(0))
	reg := NewRegistry(base, &fakeAuth{grant: johnGrant()}, 0)
	ctx := nav.WithNavigator(context.Background(), nav.NewHistory("/auth/login"))

	a, _ := reg.Get(ctx, "a")
	b, _ := reg.Get(ctx, "b")
	_, err := a.Login(ctx, Credentials{Username: "john", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, a.IsAuthenticated())
	assert.False(t, b.IsAuthenticated())
	assert.Empty(t, b.Store().AccessToken())

	reg.Forget("a")
	assert.Equal(t, 1, reg.Len())
	again, _ := reg.Get(ctx, "a")
	assert.NotSame(t, a, again)
	assert.True(t, again.IsAuthenticated(), "user rehydrated from the store")
	assert.Equal(t, "fake-token", again.Store().AccessToken())
}

func TestRegistry_Sweep(t *testing.T) {
	reg := NewRegistry(credstore.New(memory.New(0)), &fakeAuth{}, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	_, _ = reg.Get(context.Background(), "old")
	now = now.Add(2 * time.Minute)
	_, _ = reg.Get(context.Background(), "fresh")

	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}
