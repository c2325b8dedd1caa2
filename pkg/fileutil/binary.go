package fileutil

import (
	"io"
	"os"
	"path/filepath"
)

// SampleSize is the number of leading bytes inspected
// when classifying a file as text or binary.
const SampleSize = 1024

var textBytes = func() (table [256]bool) {
	for _, b := range []byte{7, 8, 9, 10, 12, 13, 27} {
		table[b] = true
	}
	for b := 0x20; b < 0x7f; b++ {
		table[b] = true
	}
	for b := 0x80; b < 0x100; b++ {
		table[b] = true
	}
	return
}()

// IsText reports whether sample consists only of common text
// control bytes, printable ASCII and high (non-ASCII) bytes.
// Any other control byte marks the content as binary.
func IsText(sample []byte) bool {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	for _, b := range sample {
		if !textBytes[b] {
			return false
		}
	}
	return true
}

// IsTextFile classifies the file at path by sampling its
// first SampleSize bytes.
func IsTextFile(path string) (bool, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, SampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return IsText(buf[:n]), nil
}
