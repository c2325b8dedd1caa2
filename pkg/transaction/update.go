package transaction

import (
	"context"
	"errors"

	"github.com/Felis-Linux/fpkg/pkg/repository"
)

// Outdated returns the installed packages whose version differs
// from the version their repository currently publishes.
func (t *Transaction) Outdated(ctx context.Context) ([]string, error) {
	ctx, log := t.context(ctx)
	e := t.engine

	installed, err := e.store.Installed(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, meta := range installed {
		loc, err := e.repos.Lookup(ctx, meta.Package)
		if errors.Is(err, repository.ErrIndexMissing) {
			return nil, err
		}
		if err != nil || loc.Installed() || loc.Name != meta.Package {
			warning := "no repository publishes this package"
			if err != nil {
				warning = err.Error()
			}
			log.Info("skipping package that no repository knows", "pkg", meta.Package, "warning", warning)
			continue
		}
		latest, err := e.repos.Metadata(ctx, loc)
		if err != nil {
			log.Info("skipping package without repository metadata", "pkg", meta.Package, "warning", err.Error())
			continue
		}
		if latest.Version != meta.Version {
			log.V(1).Info("package is outdated", "pkg", meta.Package, "installed", meta.Version, "available", latest.Version)
			out = append(out, meta.Package)
		}
	}
	return out, nil
}

// Update installs every outdated package.
func (t *Transaction) Update(ctx context.Context) (*Result, error) {
	outdated, err := t.Outdated(ctx)
	if err != nil {
		return nil, err
	}
	return t.Install(ctx, outdated)
}
