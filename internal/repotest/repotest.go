// Package repotest builds throwaway package repositories
// served over HTTP for use in tests.
package repotest

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"golang.org/x/crypto/blake2b"
)

// File is a single entry of a package archive. Entries
// with a Link are written as symbolic links.
type File struct {
	Body string
	Mode int64
	Link string
}

type Package struct {
	Meta  v1.PackageMetadata
	Files map[string]File
	// SkipBlake2b omits the .b2 sidecar
	SkipBlake2b bool
	// CorruptArchive publishes sidecars that do not
	// match the archive
	CorruptArchive bool
	// CorruptBlake2b publishes a valid .sha256 sidecar
	// and a .b2 sidecar that does not match
	CorruptBlake2b bool
}

type Repo struct {
	Name   string
	Dir    string
	Server *httptest.Server
	names  []string
}

// NewRepo starts an HTTP server serving an empty repository.
// The server is closed when the test finishes.
func NewRepo(t *testing.T, name string) *Repo {
	t.Helper()
	dir := t.TempDir()
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)

	return &Repo{
		Name:   name,
		Dir:    dir,
		Server: srv,
	}
}

func (r *Repo) URL() string {
	return r.Server.URL
}

func (r *Repo) Repository() v1.Repository {
	return v1.Repository{Name: r.Name, URL: r.URL()}
}

// Add writes the metadata, archive and sidecars of a package
// into the repository. Publish must be called afterwards to
// regenerate the index.
func (r *Repo) Add(t *testing.T, pkg Package) {
	t.Helper()
	dir := filepath.Join(r.Dir, pkg.Meta.Package)
	require.NoError(t, os.MkdirAll(dir, 0755))

	if pkg.Meta.Files == nil {
		for k := range pkg.Files {
			pkg.Meta.Files = append(pkg.Meta.Files, k)
		}
		sort.Strings(pkg.Meta.Files)
	}
	data, err := json.Marshal(pkg.Meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), data, 0644))

	archive := TarXZ(t, pkg.Meta.TreeName(), pkg.Files)
	archivePath := filepath.Join(dir, pkg.Meta.ArchiveName())
	require.NoError(t, os.WriteFile(archivePath, archive, 0644))

	summed := archive
	if pkg.CorruptArchive {
		summed = append([]byte{}, archive...)
		summed[len(summed)/2] ^= 0xff
	}
	shaSum := sha256.Sum256(summed)
	require.NoError(t, os.WriteFile(archivePath+".sha256", []byte(hex.EncodeToString(shaSum[:])+"\n"), 0644))
	if !pkg.SkipBlake2b {
		b2Summed := summed
		if pkg.CorruptBlake2b {
			b2Summed = append([]byte{}, archive...)
			b2Summed[len(b2Summed)/2] ^= 0xff
		}
		b2Sum := blake2b.Sum512(b2Summed)
		require.NoError(t, os.WriteFile(archivePath+".b2", []byte(hex.EncodeToString(b2Sum[:])+"\n"), 0644))
	}

	for _, n := range r.names {
		if n == pkg.Meta.Package {
			return
		}
	}
	r.names = append(r.names, pkg.Meta.Package)
}

// Publish writes the db index and its sidecar.
func (r *Repo) Publish(t *testing.T) {
	t.Helper()
	names := append([]string{}, r.names...)
	sort.Strings(names)
	db := []byte(strings.Join(names, "\n") + "\n")
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "db"), db, 0644))

	sum := sha256.Sum256(db)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "db.sha256"), []byte(hex.EncodeToString(sum[:])+"\n"), 0644))
}

// TarXZ builds an xz compressed tar archive with every
// file placed underneath prefix.
func TarXZ(t *testing.T, prefix string, files map[string]File) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)

	// parents must come first
	paths := make([]string, 0, len(files))
	for k := range files {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	dirs := map[string]bool{}
	writeDir := func(d string) {
		var parts []string
		for _, p := range strings.Split(d, "/") {
			parts = append(parts, p)
			name := strings.Join(parts, "/") + "/"
			if dirs[name] {
				continue
			}
			dirs[name] = true
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}))
		}
	}

	writeDir(prefix)
	for _, p := range paths {
		f := files[p]
		name := prefix + "/" + strings.TrimPrefix(p, "/")
		if d := filepath.Dir(name); d != "." {
			writeDir(d)
		}
		if f.Link != "" {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeSymlink,
				Linkname: f.Link,
				Mode:     0777,
			}))
			continue
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0644
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     mode,
			Size:     int64(len(f.Body)),
		}))
		_, err := tw.Write([]byte(f.Body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())
	return buf.Bytes()
}
