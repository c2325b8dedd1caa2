package packages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/fileutil"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
)

func NewStore(layout rootfs.Layout) *Store {
	return &Store{layout: layout}
}

// Dir returns the record directory of a package.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.layout.PackageStore(), filepath.Base(filepath.Clean("/"+name)))
}

func (s *Store) metadataPath(name string) string {
	return filepath.Join(s.Dir(name), metadataFile)
}

// Stage copies the package.json at src into the record of
// the named package, replacing any existing copy.
func (s *Store) Stage(ctx context.Context, name, src string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", name)
	log.V(3).Info("staging package metadata", "src", src)

	if err := os.MkdirAll(s.Dir(name), 0755); err != nil {
		log.Error(err, "failed to create package record directory")
		return fmt.Errorf("creating record directory: %w", err)
	}
	if err := fileutil.CopyFile(src, s.metadataPath(name), 0644); err != nil {
		log.Error(err, "failed to copy package metadata")
		return fmt.Errorf("copying metadata: %w", err)
	}
	return nil
}

// IsInstalled reports whether a record exists for the package.
func (s *Store) IsInstalled(name string) bool {
	return fileutil.IsRegular(s.metadataPath(name))
}

// Get returns the recorded metadata of an installed package.
func (s *Store) Get(_ context.Context, name string) (*v1.PackageMetadata, error) {
	meta, err := ReadMetadata(s.metadataPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// List returns the sorted names of every installed package.
func (s *Store) List(ctx context.Context) ([]string, error) {
	log := logr.FromContextOrDiscard(ctx)

	entries, err := os.ReadDir(s.layout.PackageStore())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		log.Error(err, "failed to read package store")
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || !s.IsInstalled(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Installed returns the metadata of every installed package.
// Unreadable records are skipped.
func (s *Store) Installed(ctx context.Context) ([]*v1.PackageMetadata, error) {
	log := logr.FromContextOrDiscard(ctx)

	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*v1.PackageMetadata, 0, len(names))
	for _, name := range names {
		meta, err := s.Get(ctx, name)
		if err != nil {
			log.Info("skipping unreadable package record", "pkg", name, "warning", err.Error())
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

// Provider returns the installed package that lists name
// in its provides.
func (s *Store) Provider(ctx context.Context, name string) (string, bool, error) {
	installed, err := s.Installed(ctx)
	if err != nil {
		return "", false, err
	}
	for _, meta := range installed {
		for _, p := range meta.Provides {
			if p == name {
				return meta.Package, true, nil
			}
		}
	}
	return "", false, nil
}

func (s *Store) baselinePath(name, rel string) string {
	return filepath.Join(s.Dir(name), baselineDir, filepath.Clean("/"+rel))
}

// Baseline returns the digest recorded for a tracked file
// when it was last placed.
func (s *Store) Baseline(name, rel string) (string, bool, error) {
	data, err := os.ReadFile(s.baselinePath(name, rel))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// EnsureBaselineDir creates the directory holding the
// baseline of a tracked file.
func (s *Store) EnsureBaselineDir(name, rel string) error {
	return os.MkdirAll(filepath.Dir(s.baselinePath(name, rel)), 0755)
}

func (s *Store) SaveBaseline(name, rel, sum string) error {
	if err := s.EnsureBaselineDir(name, rel); err != nil {
		return fmt.Errorf("creating baseline directory: %w", err)
	}
	return os.WriteFile(s.baselinePath(name, rel), []byte(sum+"\n"), 0644)
}

// Delete removes the record of a package including
// every baseline.
func (s *Store) Delete(ctx context.Context, name string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", name)
	if !s.IsInstalled(name) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	log.V(3).Info("deleting package record")
	if err := os.RemoveAll(s.Dir(name)); err != nil {
		log.Error(err, "failed to delete package record")
		return err
	}
	return nil
}

// Snapshot returns the raw metadata recorded for a package
// so that a later Restore can undo a Stage.
func (s *Store) Snapshot(name string) ([]byte, bool) {
	data, err := os.ReadFile(s.metadataPath(name))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Restore rewrites the metadata of a package from a Snapshot.
// A nil snapshot removes the record entirely.
func (s *Store) Restore(ctx context.Context, name string, data []byte) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", name)
	if data == nil {
		log.V(3).Info("removing staged package record")
		return os.RemoveAll(s.Dir(name))
	}
	log.V(3).Info("restoring package record")
	return os.WriteFile(s.metadataPath(name), data, 0644)
}
