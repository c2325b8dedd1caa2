package digest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	var cases = []struct {
		name string
		alg  Algorithm
		in   string
		out  string
	}{
		{
			"sha256",
			SHA256,
			"hello world",
			"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			"blake2b empty",
			BLAKE2b,
			"",
			"786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Reader(tt.alg, strings.NewReader(tt.in))
			assert.NoError(t, err)
			assert.EqualValues(t, tt.out, out)
		})
	}

	_, err := Reader(Algorithm("md5"), strings.NewReader(""))
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.tar.xz")
	require.NoError(t, os.WriteFile(path, []byte("some package contents"), 0644))

	for _, alg := range []Algorithm{SHA256, BLAKE2b} {
		t.Run(string(alg), func(t *testing.T) {
			one, err := File(alg, path)
			require.NoError(t, err)
			two, err := File(alg, path)
			require.NoError(t, err)
			assert.EqualValues(t, one, two)
		})
	}
}

func TestParseSidecar(t *testing.T) {
	var cases = []struct {
		in  string
		out string
		ok  bool
	}{
		{"abcdef\n", "abcdef", true},
		{"ABCDEF", "abcdef", true},
		{"abcdef  foo-1.0.tar.xz\n", "abcdef", true},
		{"\n", "", false},
		{"", "", false},
	}

	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			out, err := ParseSidecar([]byte(tt.in))
			if !tt.ok {
				assert.ErrorIs(t, err, ErrEmptySidecar)
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tt.out, out)
		})
	}
}

func TestVerify(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	dir := t.TempDir()
	path := filepath.Join(dir, "foo.tar.xz")
	data := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, os.WriteFile(path, data, 0644))

	for _, alg := range []Algorithm{SHA256, BLAKE2b} {
		t.Run(string(alg), func(t *testing.T) {
			sum, err := File(alg, path)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(alg.Sidecar(path), []byte(sum+"\n"), 0644))

			assert.NoError(t, Verify(ctx, alg, path, alg.Sidecar(path)))

			// corrupt a single byte
			corrupt := filepath.Join(dir, "corrupt-"+string(alg))
			bad := append([]byte{}, data...)
			bad[len(bad)/2] ^= 0x01
			require.NoError(t, os.WriteFile(corrupt, bad, 0644))

			err = Verify(ctx, alg, corrupt, alg.Sidecar(path))
			assert.ErrorIs(t, err, ErrMismatch)
		})
	}

	t.Run("missing sidecar", func(t *testing.T) {
		err := Verify(ctx, SHA256, path, filepath.Join(dir, "missing.sha256"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
