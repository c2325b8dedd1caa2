package repository

import (
	"context"
	"errors"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/downloader"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
)

const (
	indexFile    = "db"
	metadataFile = "package.json"
	packagesDir  = "packages"
)

var (
	ErrPackageNotFound    = errors.New("package not found")
	ErrMissingIndexDigest = errors.New("failed to retrieve the repository index digest")
	ErrIndexMissing       = errors.New("repository index is missing, was the database initialized?")
	ErrMetadataMismatch   = errors.New("package metadata does not match its index entry")
)

// Installed is the view of the installed package store
// used to resolve names through provides.
type Installed interface {
	Provider(ctx context.Context, name string) (string, bool, error)
	Get(ctx context.Context, name string) (*v1.PackageMetadata, error)
}

// Location is where a package can be retrieved from.
type Location struct {
	// Name is the canonical package name.
	Name string
	// Repository is empty when the package is only known
	// from the installed store.
	Repository string
	// URL is the base URL of the package directory.
	URL string
	// Provider is the name that was requested when it was
	// resolved through the provides of an installed package.
	Provider string
}

// Installed reports whether the location could only be
// resolved from the installed store.
func (l Location) Installed() bool {
	return l.Repository == ""
}

// Manager synchronizes and searches the configured repositories.
type Manager struct {
	layout    rootfs.Layout
	repos     []v1.Repository
	dl        *downloader.Downloader
	installed Installed
}

// Index is the sorted set of package names
// published by a repository.
type Index struct {
	names []string
}
