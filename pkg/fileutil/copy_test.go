package fileutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "usr", "bin"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "usr", "bin", "foo"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "etc", "foo.conf"), []byte("new\n"), 0644))
	require.NoError(t, os.Symlink("foo", filepath.Join(src, "usr", "bin", "bar")))

	t.Run("files and links are copied", func(t *testing.T) {
		dst := t.TempDir()
		require.NoError(t, CopyTree(ctx, src, dst, nil))

		assert.FileExists(t, filepath.Join(dst, "usr", "bin", "foo"))
		info, err := os.Stat(filepath.Join(dst, "usr", "bin", "foo"))
		require.NoError(t, err)
		assert.EqualValues(t, os.FileMode(0755), info.Mode().Perm())

		ok, err := IsSymbolicLink(filepath.Join(dst, "usr", "bin", "bar"))
		assert.NoError(t, err)
		assert.True(t, ok)
		link, err := os.Readlink(filepath.Join(dst, "usr", "bin", "bar"))
		assert.NoError(t, err)
		assert.EqualValues(t, "foo", link)
	})
	t.Run("existing files are replaced", func(t *testing.T) {
		dst := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dst, "etc"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dst, "etc", "foo.conf"), []byte("old\n"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(dst, "usr", "bin"), 0755))
		require.NoError(t, os.Symlink("elsewhere", filepath.Join(dst, "usr", "bin", "bar")))

		require.NoError(t, CopyTree(ctx, src, dst, nil))

		data, err := os.ReadFile(filepath.Join(dst, "etc", "foo.conf"))
		assert.NoError(t, err)
		assert.EqualValues(t, "new\n", string(data))

		link, err := os.Readlink(filepath.Join(dst, "usr", "bin", "bar"))
		assert.NoError(t, err)
		assert.EqualValues(t, "foo", link)
	})
	t.Run("renamed files are diverted", func(t *testing.T) {
		dst := t.TempDir()
		err := CopyTree(ctx, src, dst, func(rel string) string {
			if rel == filepath.Join("etc", "foo.conf") {
				return rel + ".new"
			}
			return rel
		})
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(dst, "etc", "foo.conf.new"))
		assert.NoFileExists(t, filepath.Join(dst, "etc", "foo.conf"))
	})
	t.Run("directory symlinks in the destination are followed", func(t *testing.T) {
		dst := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dst, "real-usr"), 0755))
		require.NoError(t, os.Symlink("real-usr", filepath.Join(dst, "usr")))

		require.NoError(t, CopyTree(ctx, src, dst, nil))
		assert.FileExists(t, filepath.Join(dst, "real-usr", "bin", "foo"))
	})
}

func TestIsRegular(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Symlink("file", filepath.Join(dir, "link")))

	assert.True(t, IsRegular(path))
	assert.False(t, IsRegular(filepath.Join(dir, "link")))
	assert.False(t, IsRegular(dir))
	assert.False(t, IsRegular(filepath.Join(dir, "missing")))
}
