package lockfile_test

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"memoryatlas/internal/lockfile"
	"memoryatlas/internal/services"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "atlas.lock")

	first, err := lockfile.Acquire(path)
	require.NoError(t, err)
	require.Equal(t, path, first.Path())

	_, err = lockfile.Acquire(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, lockfile.ErrLocked))
	require.True(t, errors.Is(err, services.ErrTransient))
	require.NotEmpty(t, services.Details(err).Hint)

	require.NoError(t, first.Release())

	second, err := lockfile.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestReleaseNilLock(t *testing.T) {
	var lock *lockfile.Lock
	require.NoError(t, lock.Release())
	require.Empty(t, lock.Path())
}
