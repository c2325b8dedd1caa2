package lockfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	t.Run("lock is exclusive", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "var", "fpkg", "lockfile")

		guard, err := Acquire(ctx, path)
		require.NoError(t, err)
		assert.FileExists(t, path)
		assert.True(t, Held(path))

		_, err = Acquire(ctx, path)
		assert.ErrorIs(t, err, ErrLocked)

		assert.NoError(t, guard.Release())
		assert.NoFileExists(t, path)
		assert.False(t, Held(path))
	})
	t.Run("lock can be taken again after release", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lockfile")

		guard, err := Acquire(ctx, path)
		require.NoError(t, err)
		require.NoError(t, guard.Release())

		guard, err = Acquire(ctx, path)
		require.NoError(t, err)
		assert.NoError(t, guard.Release())
	})
	t.Run("release is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lockfile")

		guard, err := Acquire(ctx, path)
		require.NoError(t, err)

		assert.NoError(t, guard.Release())
		assert.NoError(t, guard.Release())

		var nilGuard *Guard
		assert.NoError(t, nilGuard.Release())
	})
}
