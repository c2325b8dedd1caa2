package hooks

import (
	"io"

	"github.com/Felis-Linux/fpkg/pkg/rootfs"
)

// Phase is a checkpoint of a transaction at which
// the hook executable is invoked.
type Phase string

const (
	PreInstall  Phase = "PRE-I"
	PostInstall Phase = "POST-I"
	PreRemove   Phase = "PRE-R"
	PostRemove  Phase = "POST-R"
)

// Runner invokes the hook executable installed into a root.
type Runner struct {
	layout rootfs.Layout
	stdout io.Writer
	stderr io.Writer
}
