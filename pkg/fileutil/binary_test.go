package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsText(t *testing.T) {
	var cases = []struct {
		name string
		in   []byte
		ok   bool
	}{
		{"empty", []byte{}, true},
		{"config file", []byte("# comment\nkey = value\r\n\tindented\f\n"), true},
		{"ansi escape", []byte("\x1b[31mred\x1b[0m\a\b"), true},
		{"utf-8", []byte("grüße, 世界\n"), true},
		{"nul byte", []byte("ELF\x00\x01\x02"), false},
		{"vertical tab", []byte("a\x0bb"), false},
		{"delete", []byte("a\x7fb"), false},
		{
			"control byte after sample",
			append(bytes.Repeat([]byte("a"), SampleSize), 0x00),
			true,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualValues(t, tt.ok, IsText(tt.in))
		})
	}
}

func TestIsTextFile(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "text")
	require.NoError(t, os.WriteFile(text, []byte("hello\n"), 0644))
	binary := filepath.Join(dir, "binary")
	require.NoError(t, os.WriteFile(binary, []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00}, 0755))

	ok, err := IsTextFile(text)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsTextFile(binary)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = IsTextFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
