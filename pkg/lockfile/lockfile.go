package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
)

// Acquire exclusively creates the lock marker at path. If the
// marker already exists another transaction is assumed to be
// running and ErrLocked is returned.
func Acquire(ctx context.Context, path string) (*Guard, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Error(err, "failed to create lockfile directory")
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		log.Error(err, "failed to create lockfile")
		return nil, err
	}
	_ = f.Close()
	log.V(3).Info("acquired lock")

	return &Guard{path: path}, nil
}

// Release removes the lock marker. It is safe to call more than
// once and tolerates the marker having already been removed.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		if err := os.Remove(g.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.err = err
		}
	})
	return g.err
}

// Path returns the location of the lock marker.
func (g *Guard) Path() string {
	return g.path
}

// Held reports whether a lock marker is present at path.
func Held(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
