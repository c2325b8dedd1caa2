package fileutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
)

// CopyTree copies the contents of src onto dst, merging with
// whatever already exists there. Symbolic links are recreated
// rather than followed. The optional rename function maps a
// path relative to src onto the path relative to dst that it
// should be written to.
func CopyTree(ctx context.Context, src, dst string, rename func(rel string) string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src, "dst", dst)
	log.V(3).Info("copying tree")

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if rename != nil && !d.IsDir() {
			rel = rename(rel)
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			// the target may already be a directory, or a
			// symbolic link to one
			if fi, err := os.Stat(target); err == nil && fi.IsDir() {
				return nil
			}
			log.V(5).Info("creating directory", "target", target)
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading symlink: %w", err)
			}
			if err := removeExisting(target); err != nil {
				return err
			}
			log.V(5).Info("creating symlink", "target", target, "link", link)
			if err := os.Symlink(link, target); err != nil {
				return fmt.Errorf("creating symlink: %w", err)
			}
		case info.Mode().IsRegular():
			if err := removeExisting(target); err != nil {
				return err
			}
			log.V(5).Info("copying file", "target", target, "mode", info.Mode())
			if err := CopyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			log.Info("skipping unknown filesystem node type", "path", path, "mode", info.Mode())
		}
		return nil
	})
}

// CopyFile copies the contents of src into a newly created
// file at dst with the given permissions.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying file: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	// umask may have masked bits away
	return os.Chmod(dst, perm)
}

// removeExisting deletes a file or symbolic link at path so that
// it can be recreated. Directories are left alone.
func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to replace directory with file: %s", path)
	}
	return os.Remove(path)
}
