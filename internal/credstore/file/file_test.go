package file

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "creds", "credentials.json")

	b, err := New(path)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "access_token", "at"))
	require.NoError(t, b.Set(ctx, "user", `{"id":"1"}`))

	again, err := New(path)
	require.NoError(t, err)
	v, ok, err := again.Get(ctx, "access_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "at", v)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestBackend_DeleteAllRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	b, err := New(path)
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "access_token", "at"))
	require.NoError(t, b.Set(ctx, "refresh_token", "rt"))
	require.NoError(t, b.Delete(ctx, "access_token", "refresh_token", "user"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, b.Delete(ctx, "access_token"), "borrar sin archivo no es error")
}

func TestBackend_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	b, err := New(path)
	require.NoError(t, err)
	_, _, err = b.Get(ctx, "access_token")
	assert.Error(t, err)

	require.NoError(t, b.Set(ctx, "access_token", "fresh"))
	v, ok, err := b.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
}
