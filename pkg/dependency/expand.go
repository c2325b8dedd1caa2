package dependency

import (
	"context"
	"slices"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/repository"
	"github.com/go-logr/logr"
)

// Resolver finds packages and their metadata.
type Resolver interface {
	Lookup(ctx context.Context, name string) (repository.Location, error)
	Metadata(ctx context.Context, loc repository.Location) (*v1.PackageMetadata, error)
}

// Checker reports whether a package is already installed.
type Checker interface {
	IsInstalled(name string) bool
}

// Expand returns the dependencies of the requested packages that
// are neither requested nor installed, in the order they are first
// seen. Only the direct dependencies of the requested packages are
// considered. Packages that cannot be resolved are skipped.
func Expand(ctx context.Context, resolver Resolver, installed Checker, requested []string) []string {
	log := logr.FromContextOrDiscard(ctx)

	var out []string
	for _, name := range requested {
		loc, err := resolver.Lookup(ctx, name)
		if err != nil {
			log.Info("skipping package that could not be resolved", "pkg", name, "warning", err.Error())
			continue
		}
		meta, err := resolver.Metadata(ctx, loc)
		if err != nil {
			log.Info("skipping package without metadata", "pkg", name, "warning", err.Error())
			continue
		}
		for _, dep := range meta.Dependencies {
			if slices.Contains(requested, dep) || slices.Contains(out, dep) {
				continue
			}
			if installed.IsInstalled(dep) {
				log.V(3).Info("dependency is already installed", "pkg", name, "dep", dep)
				continue
			}
			depLoc, err := resolver.Lookup(ctx, dep)
			if err != nil {
				log.Info("skipping dependency that could not be resolved", "pkg", name, "dep", dep, "warning", err.Error())
				continue
			}
			// provided by a package that is already there
			if depLoc.Name != dep && installed.IsInstalled(depLoc.Name) {
				log.V(3).Info("dependency is provided by an installed package", "pkg", name, "dep", dep, "provider", depLoc.Name)
				continue
			}
			log.V(1).Info("adding dependency", "pkg", name, "dep", dep)
			out = append(out, dep)
		}
	}
	return out
}
