package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the behaviour every backend must share
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "theme", "dark"))
	v, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Set(ctx, "theme", "light"))
	v, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStorage(t, s)
}

func TestSQLite(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSQLite(dir)
	require.NoError(t, err)
	exerciseStorage(t, s)
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)

	// Values survive reopening, and migrations are idempotent
	reopened, err := NewSQLite(dir)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	defer s.Close()

	exerciseStorage(t, s)

	raw, err := mr.Get(DefaultRedisPrefix + "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", raw)
}

func TestRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisOptions{})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: BackendSQLite, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	s.Close()

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.ErrorContains(t, err, "unknown preference backend")
}
