package rootfs

import (
	"path/filepath"
	"strings"
)

const (
	// HookScriptsDir is where packages install the scripts run by
	// the hook executable. Files under it are removed after POST-R.
	HookScriptsDir = "usr/lib/fpkg/hooks/"
	hookExec       = "usr/lib/fpkg/hookexec"
)

// Layout resolves every path fpkg touches underneath
// a target root filesystem.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	if root == "" {
		root = "/"
	}
	return Layout{Root: filepath.Clean(root)}
}

// Path joins a package-relative path onto the root.
func (l Layout) Path(rel string) string {
	return filepath.Join(l.Root, filepath.Clean("/"+rel))
}

func (l Layout) Config() string {
	return filepath.Join(l.Root, "etc", "fpkg", "config.json")
}

func (l Layout) PackageStore() string {
	return filepath.Join(l.Root, "var", "fpkg", "pkg")
}

func (l Layout) RepoCache() string {
	return filepath.Join(l.Root, "var", "fpkg", "repos")
}

// RepoDir is the cache directory of a single repository.
func (l Layout) RepoDir(repo string) string {
	return filepath.Join(l.RepoCache(), repo)
}

func (l Layout) Lockfile() string {
	return filepath.Join(l.Root, "var", "fpkg", "lockfile")
}

// Staging is the transient area removed at the end of
// every transaction.
func (l Layout) Staging() string {
	return filepath.Join(l.Root, "var", "tmp", "fpkg")
}

func (l Layout) HookExec() string {
	return filepath.Join(l.Root, hookExec)
}

// IsHookScript reports whether a package-relative path lives
// in the hook script directory.
func IsHookScript(rel string) bool {
	return strings.Contains(filepath.ToSlash(rel), HookScriptsDir)
}
