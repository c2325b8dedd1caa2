package packages

import (
	"errors"

	"github.com/Felis-Linux/fpkg/pkg/rootfs"
)

const (
	metadataFile = "package.json"
	baselineDir  = "files"
)

var ErrNotInstalled = errors.New("package is not installed")

// Store persists the record of every installed package
// underneath the package store of a root.
type Store struct {
	layout rootfs.Layout
}
