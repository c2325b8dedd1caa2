package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/hooks"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
)

// Remove deletes the files and records of the named packages.
// A package that cannot be removed does not stop the rest of
// the batch. Every such failure is returned.
func (t *Transaction) Remove(ctx context.Context, names []string) error {
	ctx, log := t.context(ctx)
	e := t.engine

	var errs []error
	var removing []*v1.PackageMetadata
	for _, name := range names {
		meta, err := e.store.Get(ctx, name)
		if err != nil {
			log.Error(err, "package not found", "pkg", name)
			errs = append(errs, fmt.Errorf("removing %s: %w", name, err))
			continue
		}
		removing = append(removing, meta)
	}

	t.runHook(ctx, hooks.PreRemove)
	for _, meta := range removing {
		log.Info("removing package", "pkg", meta.Package, "version", meta.Version)
		t.removeFiles(ctx, meta, false)
	}
	t.runHook(ctx, hooks.PostRemove)

	for _, meta := range removing {
		// hook scripts must outlive the POST-R hooks
		t.removeFiles(ctx, meta, true)
		if err := e.store.Delete(ctx, meta.Package); err != nil {
			log.Error(err, "failed to delete package record", "pkg", meta.Package)
			errs = append(errs, fmt.Errorf("removing %s: %w", meta.Package, err))
		}
	}
	return errors.Join(errs...)
}

// removeFiles deletes either the hook scripts of a package
// or every other tracked file.
func (t *Transaction) removeFiles(ctx context.Context, meta *v1.PackageMetadata, hookScripts bool) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", meta.Package)
	for _, f := range meta.Files {
		if rootfs.IsHookScript(f) != hookScripts {
			continue
		}
		path := t.engine.layout.Path(f)
		err := os.Remove(path)
		switch {
		case err == nil:
			log.V(5).Info("removed file", "file", f)
		case errors.Is(err, os.ErrNotExist):
			log.Info("tracked file is already gone", "file", f, "warning", "skipping")
		default:
			log.Info("failed to remove tracked file", "file", f, "warning", err.Error())
		}
	}
}
