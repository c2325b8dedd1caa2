package archiveutil

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Felis-Linux/fpkg/internal/repotest"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	archive := repotest.TarXZ(t, "foo-1.0", map[string]repotest.File{
		"usr/bin/foo":      {Body: "#!/bin/sh\necho foo\n", Mode: 0755},
		"etc/foo.conf":     {Body: "key=value\n"},
		"usr/bin/foo-link": {Link: "foo"},
	})
	src := filepath.Join(t.TempDir(), "foo.tar.xz")
	require.NoError(t, os.WriteFile(src, archive, 0644))

	out := t.TempDir()
	err := Extract(ctx, src, out)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(out, "foo-1.0", "usr", "bin"))
	assert.FileExists(t, filepath.Join(out, "foo-1.0", "etc", "foo.conf"))

	info, err := os.Stat(filepath.Join(out, "foo-1.0", "usr", "bin", "foo"))
	require.NoError(t, err)
	assert.EqualValues(t, os.FileMode(0755), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(out, "foo-1.0", "usr", "bin", "foo-link"))
	assert.NoError(t, err)
	assert.EqualValues(t, "foo", link)
}

func TestExtract_Zstd(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(zw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "test.txt", Typeflag: tar.TypeReg, Mode: 0644, Size: 5}))
	_, err = tw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())

	src := filepath.Join(t.TempDir(), "test.tar.zst")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0644))

	out := t.TempDir()
	require.NoError(t, Extract(ctx, src, out))

	data, err := os.ReadFile(filepath.Join(out, "test.txt"))
	assert.NoError(t, err)
	assert.EqualValues(t, "hello", string(data))
}

func TestUntar_UnsafePath(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../../escape.txt", Typeflag: tar.TypeReg, Mode: 0644, Size: 1}))
	_, err := tw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	out := filepath.Join(t.TempDir(), "nested", "dir")
	err = Untar(ctx, &buf, out)
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestExtract_Corrupt(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	archive := repotest.TarXZ(t, "foo-1.0", map[string]repotest.File{
		"etc/foo.conf": {Body: "key=value\n"},
	})
	archive = archive[:len(archive)/2]
	src := filepath.Join(t.TempDir(), "foo.tar.xz")
	require.NoError(t, os.WriteFile(src, archive, 0644))

	err := Extract(ctx, src, t.TempDir())
	assert.Error(t, err)
}

func TestUntar_UnsafeLinks(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	outside := t.TempDir()

	type entry struct {
		header tar.Header
		body   string
	}
	cases := []struct {
		name    string
		entries []entry
	}{
		{
			"write through symlinked parent",
			[]entry{
				{header: tar.Header{Name: "sub/", Typeflag: tar.TypeDir, Mode: 0755}},
				{header: tar.Header{Name: "evil", Typeflag: tar.TypeSymlink, Linkname: "sub"}},
				{header: tar.Header{Name: "evil/pwned", Typeflag: tar.TypeReg, Mode: 0644, Size: 1}, body: "x"},
			},
		},
		{
			"absolute symlink",
			[]entry{
				{header: tar.Header{Name: "evil", Typeflag: tar.TypeSymlink, Linkname: outside}},
			},
		},
		{
			"relative symlink escaping",
			[]entry{
				{header: tar.Header{Name: "usr/lib/evil", Typeflag: tar.TypeSymlink, Linkname: "../../../../escape"}},
			},
		},
		{
			"hardlink escaping",
			[]entry{
				{header: tar.Header{Name: "evil", Typeflag: tar.TypeLink, Linkname: "../escape"}},
			},
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tw := tar.NewWriter(&buf)
			for _, e := range tt.entries {
				hdr := e.header
				require.NoError(t, tw.WriteHeader(&hdr))
				if e.body != "" {
					_, err := tw.Write([]byte(e.body))
					require.NoError(t, err)
				}
			}
			require.NoError(t, tw.Close())

			out := filepath.Join(t.TempDir(), "nested", "dir")
			err := Untar(ctx, &buf, out)
			assert.ErrorIs(t, err, ErrUnsafePath)
			assert.NoFileExists(t, filepath.Join(outside, "pwned"))
		})
	}
}

func TestUntar_ReplacesSymlinkWithFile(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "target", Typeflag: tar.TypeReg, Mode: 0644, Size: 3}))
	_, err := tw.Write([]byte("old"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "target"}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "link", Typeflag: tar.TypeReg, Mode: 0644, Size: 3}))
	_, err = tw.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	out := t.TempDir()
	require.NoError(t, Untar(ctx, &buf, out))

	data, err := os.ReadFile(filepath.Join(out, "target"))
	require.NoError(t, err)
	assert.EqualValues(t, "old", string(data))
	data, err = os.ReadFile(filepath.Join(out, "link"))
	require.NoError(t, err)
	assert.EqualValues(t, "new", string(data))
}
