package archiveutil

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

var (
	magicXZ   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicGzip = []byte{0x1f, 0x8b}
)

var ErrUnsafePath = errors.New("archive entry escapes the destination")

// Extract expands the compressed tar archive at src into dst.
// The compression is detected from the archive's leading bytes
// so that xz, zstd and gzip payloads are all accepted.
func Extract(ctx context.Context, src, dst string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src)

	f, err := os.Open(filepath.Clean(src))
	if err != nil {
		log.Error(err, "failed to open archive")
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(magicXZ))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading archive header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, magicXZ):
		return XZuntar(ctx, br, dst)
	case bytes.HasPrefix(head, magicZstd):
		return Zuntar(ctx, br, dst)
	case bytes.HasPrefix(head, magicGzip):
		return Guntar(ctx, br, dst)
	default:
		log.V(1).Info("archive is not compressed or compression is unknown, trying plain tar")
		return Untar(ctx, br, dst)
	}
}

// XZuntar is the same as Untar, but it first decodes the xz archive.
func XZuntar(ctx context.Context, r io.Reader, path string) error {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating xz reader: %w", err)
	}
	return Untar(ctx, xzr, path)
}

// Zuntar is the same as Untar, but it first decodes the zstandard archive.
func Zuntar(ctx context.Context, r io.Reader, path string) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()
	return Untar(ctx, zr, path)
}

// Guntar is the same as Untar, but it first decodes the gzipped archive.
func Guntar(ctx context.Context, r io.Reader, path string) error {
	gzp, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzp.Close()
	return Untar(ctx, gzp, path)
}

// Untar expands a tar archive into the given path.
func Untar(ctx context.Context, r io.Reader, path string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)
	tr := tar.NewReader(r)

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			log.Error(err, "failed to read file from archive")
			return err
		case header == nil:
			continue
		}

		target, err := safeJoin(path, header.Name)
		if err != nil {
			return err
		}
		if err := noSymlinkParents(path, target); err != nil {
			log.Error(err, "refusing to extract through a symlink", "name", header.Name)
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			log.V(5).Info("creating directory", "target", target)
			if err := os.MkdirAll(target, os.FileMode(header.Mode).Perm()|0700); err != nil {
				log.Error(err, "failed to create directory", "target", target)
				return err
			}
		case tar.TypeReg:
			log.V(5).Info("creating file", "target", target, "mode", header.Mode)
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			// never write through a link left by an earlier entry
			if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
				if err := os.Remove(target); err != nil {
					return err
				}
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				log.Error(err, "failed to open file", "target", target)
				return err
			}

			if _, err := io.Copy(f, tr); err != nil {
				log.Error(err, "failed to extract file", "target", target)
				_ = f.Close()
				return err
			}
			_ = f.Close()
			if err := os.Chmod(target, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			log.V(5).Info("creating symlink", "target", target, "link", header.Linkname)
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			if !within(path, filepath.Join(filepath.Dir(target), header.Linkname)) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				log.Error(err, "failed to create symlink", "target", target)
				return err
			}
		case tar.TypeLink:
			source, err := safeJoin(path, header.Linkname)
			if err != nil {
				return err
			}
			if err := noSymlinkParents(path, source); err != nil {
				return err
			}
			log.V(5).Info("creating hardlink", "target", target, "source", source)
			_ = os.Remove(target)
			if err := os.Link(source, target); err != nil {
				log.Error(err, "failed to create hardlink", "target", target)
				return err
			}
		default:
			log.V(2).Info("skipping unsupported archive entry", "name", header.Name, "type", header.Typeflag)
		}
	}
}

// safeJoin joins name onto root and refuses any
// result that is outside of root.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if !within(root, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func within(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	return target == root || strings.HasPrefix(target, root+string(filepath.Separator))
}

// noSymlinkParents refuses target if any directory between
// root and target is a symbolic link, since an earlier entry
// could otherwise redirect writes outside of root.
func noSymlinkParents(root, target string) error {
	root = filepath.Clean(root)
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	dir := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s is a symlink", ErrUnsafePath, dir)
		}
	}
	return nil
}
