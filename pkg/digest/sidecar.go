package digest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
)

// ParseSidecar extracts the digest from the contents of a
// sidecar file. Both a bare digest and sha256sum style
// "digest  filename" lines are accepted.
func ParseSidecar(data []byte) (string, error) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", ErrEmptySidecar
	}
	return strings.ToLower(fields[0]), nil
}

// ReadSidecar reads and parses the sidecar file at path.
func ReadSidecar(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ParseSidecar(data)
}

// Verify recomputes the digest of path and compares it against
// the digest held in sidecar.
func Verify(ctx context.Context, alg Algorithm, path, sidecar string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path, "alg", alg)

	expected, err := ReadSidecar(sidecar)
	if err != nil {
		return fmt.Errorf("reading %s sidecar: %w", alg, err)
	}
	actual, err := File(alg, path)
	if err != nil {
		return fmt.Errorf("computing %s digest: %w", alg, err)
	}
	if actual != expected {
		log.V(1).Info("digest mismatch", "expected", expected, "actual", actual)
		return fmt.Errorf("%w: %s (%s)", ErrMismatch, path, alg)
	}
	log.V(3).Info("verified digest", "digest", actual)
	return nil
}
