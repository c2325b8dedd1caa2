package tracker

import (
	"github.com/Felis-Linux/fpkg/pkg/packages"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
)

// DivertSuffix is appended to the incoming version of a
// file that was modified locally.
const DivertSuffix = ".new"

// Tracker places package files onto a root and keeps the
// baseline digests used to detect local modifications.
type Tracker struct {
	layout rootfs.Layout
	store  *packages.Store
}
