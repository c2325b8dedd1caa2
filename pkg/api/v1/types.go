package v1

type Operation string

const (
	OperationInstall Operation = "install"
	OperationUpdate  Operation = "update"
	OperationRemove  Operation = "remove"
	OperationSync    Operation = "sync"
)

// Repository is a remote package source.
type Repository struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PackageMetadata is the package.json document published
// for every package in a repository. The same document is
// copied into the package store when the package is installed.
type PackageMetadata struct {
	Package      string   `json:"package"`
	Version      string   `json:"version"`
	Files        []string `json:"files"`
	Dependencies []string `json:"dependencies,omitempty"`
	Conflicts    []string `json:"conflicts,omitempty"`
	Provides     []string `json:"provides,omitempty"`
}

// ArchiveName returns the file name of the package archive
// as published by a repository.
func (p *PackageMetadata) ArchiveName() string {
	return p.Package + "-" + p.Version + ".tar.xz"
}

// TreeName returns the name of the top-level directory
// inside the package archive.
func (p *PackageMetadata) TreeName() string {
	return p.Package + "-" + p.Version
}
