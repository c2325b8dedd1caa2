package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

func (a Algorithm) new() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case BLAKE2b:
		return blake2b.New512(nil)
	default:
		return nil, fmt.Errorf("unknown digest algorithm: %s", a)
	}
}

// Sidecar returns the path of the sidecar holding this
// digest for the given file.
func (a Algorithm) Sidecar(path string) string {
	return path + "." + string(a)
}

// File computes the hex encoded digest of the file at path.
func File(alg Algorithm, path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Reader(alg, f)
}

// Reader computes the hex encoded digest of everything
// remaining in r.
func Reader(alg Algorithm, r io.Reader) (string, error) {
	h, err := alg.new()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func Sha256(path string) (string, error) {
	return File(SHA256, path)
}

func Blake2b(path string) (string, error) {
	return File(BLAKE2b, path)
}
