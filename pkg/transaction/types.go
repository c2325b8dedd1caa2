package transaction

import (
	"errors"
	"io"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/downloader"
	"github.com/Felis-Linux/fpkg/pkg/hooks"
	"github.com/Felis-Linux/fpkg/pkg/lockfile"
	"github.com/Felis-Linux/fpkg/pkg/packages"
	"github.com/Felis-Linux/fpkg/pkg/repository"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/Felis-Linux/fpkg/pkg/tracker"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-getter"
)

var (
	ErrConflict    = errors.New("package conflicts with an installed package")
	ErrFileOverlap = errors.New("more than one package in the transaction installs the same file")
)

type Options struct {
	Repositories []v1.Repository
	// Progress observes single archive and index
	// transfers. It may be nil.
	Progress getter.ProgressTracker
	// HookStdout and HookStderr receive the output of the
	// hook executable. They default to os.Stdout and os.Stderr.
	HookStdout io.Writer
	HookStderr io.Writer
}

// Engine wires together everything a transaction needs
// to operate on a single root.
type Engine struct {
	layout  rootfs.Layout
	store   *packages.Store
	repos   *repository.Manager
	dl      *downloader.Downloader
	tracker *tracker.Tracker
	hooks   *hooks.Runner
}

// Transaction is a single locked operation against a root.
// It must be closed on every exit path.
type Transaction struct {
	ID        string
	Operation v1.Operation

	engine *Engine
	guard  *lockfile.Guard
	log    logr.Logger
}

// Result describes what an install placed onto the root.
type Result struct {
	Installed []string
	// Diverted maps a package onto the files whose incoming
	// version was written alongside a local modification.
	Diverted map[string][]string
}

type plan struct {
	loc     repository.Location
	meta    *v1.PackageMetadata
	dir     string
	archive string
	skipB2  bool
}
