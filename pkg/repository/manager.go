package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/digest"
	"github.com/Felis-Linux/fpkg/pkg/downloader"
	"github.com/Felis-Linux/fpkg/pkg/fileutil"
	"github.com/Felis-Linux/fpkg/pkg/packages"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
)

// NewManager creates a Manager for the given repositories. Lookups
// fall back to the provides of the installed packages when
// installed is not nil.
func NewManager(layout rootfs.Layout, repos []v1.Repository, dl *downloader.Downloader, installed Installed) *Manager {
	return &Manager{
		layout:    layout,
		repos:     repos,
		dl:        dl,
		installed: installed,
	}
}

func (m *Manager) Repositories() []v1.Repository {
	return m.repos
}

func (m *Manager) indexPath(repo string) string {
	return filepath.Join(m.layout.RepoDir(repo), indexFile)
}

func (m *Manager) metadataPath(repo, name string) string {
	return filepath.Join(m.layout.RepoDir(repo), packagesDir, filepath.Base(filepath.Clean("/"+name)), metadataFile)
}

// MetadataPath returns where the cached package.json of a
// repository package lives.
func (m *Manager) MetadataPath(loc Location) string {
	return m.metadataPath(loc.Repository, loc.Name)
}

// Index loads the local index of a repository.
func (m *Manager) Index(repo string) (*Index, error) {
	idx, err := LoadIndex(m.indexPath(repo))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrIndexMissing, repo)
	}
	if err != nil {
		return nil, fmt.Errorf("loading index of %s: %w", repo, err)
	}
	return idx, nil
}

// Lookup resolves a package name to the repository that
// publishes it. Repositories are searched in the order they
// are configured. Names no repository knows are matched against
// the provides of the installed packages.
func (m *Manager) Lookup(ctx context.Context, name string) (Location, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", name)

	loc, err := m.search(ctx, name)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, ErrPackageNotFound) || m.installed == nil {
		return Location{}, err
	}

	provider, ok, perr := m.installed.Provider(ctx, name)
	if perr != nil {
		log.Error(perr, "failed to read installed packages")
		return Location{}, perr
	}
	if !ok {
		return Location{}, err
	}
	log.V(1).Info("package is provided by an installed package", "provider", provider)

	loc, err = m.search(ctx, provider)
	if errors.Is(err, ErrPackageNotFound) {
		return Location{Name: provider, Provider: name}, nil
	}
	if err != nil {
		return Location{}, err
	}
	loc.Provider = name
	return loc, nil
}

func (m *Manager) search(ctx context.Context, name string) (Location, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", name)
	for _, repo := range m.repos {
		idx, err := m.Index(repo.Name)
		if err != nil {
			log.Error(err, "failed to load repository index", "repo", repo.Name)
			return Location{}, err
		}
		if idx.Contains(name) {
			log.V(3).Info("found package", "repo", repo.Name)
			return Location{
				Name:       name,
				Repository: repo.Name,
				URL:        strings.TrimSuffix(repo.URL, "/") + "/" + name,
			}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
}

// Metadata returns the package.json of a location. Locations
// resolved from the installed store read the installed record.
func (m *Manager) Metadata(ctx context.Context, loc Location) (*v1.PackageMetadata, error) {
	if loc.Installed() {
		if m.installed == nil {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, loc.Name)
		}
		return m.installed.Get(ctx, loc.Name)
	}
	meta, err := packages.ReadMetadata(m.MetadataPath(loc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no metadata in %s", ErrPackageNotFound, loc.Name, loc.Repository)
	}
	if err != nil {
		return nil, err
	}
	// the store, archive and baselines are all keyed on the name
	if meta.Package != loc.Name {
		return nil, fmt.Errorf("%w: %s in %s describes %q", ErrMetadataMismatch, loc.Name, loc.Repository, meta.Package)
	}
	return meta, nil
}

// Sync refreshes the local index of every repository whose
// upstream digest no longer matches, whose index is missing,
// or every repository when force is set.
func (m *Manager) Sync(ctx context.Context, force bool) error {
	for _, repo := range m.repos {
		if err := m.sync(ctx, repo, force); err != nil {
			return fmt.Errorf("synchronizing %s: %w", repo.Name, err)
		}
	}
	return nil
}

func (m *Manager) sync(ctx context.Context, repo v1.Repository, force bool) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("repo", repo.Name)
	base := strings.TrimSuffix(repo.URL, "/")

	sidecar := filepath.Join(m.layout.RepoCache(), "."+repo.Name+"."+indexFile+"."+string(digest.SHA256))
	if err := m.dl.Download(ctx, base+"/"+indexFile+"."+string(digest.SHA256), sidecar); err != nil {
		log.Error(err, "failed to retrieve index digest")
		return fmt.Errorf("%w: %w", ErrMissingIndexDigest, err)
	}
	defer os.Remove(sidecar)

	if !force && m.upToDate(ctx, repo.Name, sidecar) {
		log.V(1).Info("repository index is up to date")
		return nil
	}
	log.Info("refreshing repository index", "force", force)

	dir := m.layout.RepoDir(repo.Name)
	if err := os.RemoveAll(dir); err != nil {
		log.Error(err, "failed to remove repository cache")
		return err
	}
	db := m.indexPath(repo.Name)
	if _, err := m.dl.DownloadAll(ctx, []downloader.Request{{Src: base + "/" + indexFile, Dst: db, Progress: true}}); err != nil {
		log.Error(err, "failed to download repository index")
		return err
	}
	if err := digest.Verify(ctx, digest.SHA256, db, sidecar); err != nil {
		log.Error(err, "downloaded index does not match its digest")
		_ = os.RemoveAll(dir)
		return err
	}

	idx, err := LoadIndex(db)
	if err != nil {
		return err
	}
	requests := make([]downloader.Request, idx.Len())
	for i, name := range idx.Names() {
		requests[i] = downloader.Request{
			Src:      base + "/" + name + "/" + metadataFile,
			Dst:      m.metadataPath(repo.Name, name),
			Optional: true,
		}
	}
	results, err := m.dl.DownloadAll(ctx, requests)
	if err != nil {
		return err
	}
	for i, r := range results {
		if !r.OK() {
			log.Info("failed to retrieve package metadata", "pkg", idx.Names()[i], "warning", r.Err.Error())
		}
	}
	log.V(1).Info("synchronized repository", "packages", idx.Len())
	return nil
}

// upToDate reports whether the local index matches the
// upstream digest.
func (m *Manager) upToDate(ctx context.Context, repo, sidecar string) bool {
	log := logr.FromContextOrDiscard(ctx).WithValues("repo", repo)
	db := m.indexPath(repo)
	if !fileutil.IsRegular(db) {
		log.V(1).Info("local repository index is missing")
		return false
	}
	if err := digest.Verify(ctx, digest.SHA256, db, sidecar); err != nil {
		log.V(1).Info("local repository index is stale", "reason", err.Error())
		return false
	}
	return true
}
