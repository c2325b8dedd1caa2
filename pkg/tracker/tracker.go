package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/digest"
	"github.com/Felis-Linux/fpkg/pkg/fileutil"
	"github.com/Felis-Linux/fpkg/pkg/packages"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
)

func New(layout rootfs.Layout, store *packages.Store) *Tracker {
	return &Tracker{
		layout: layout,
		store:  store,
	}
}

func normalise(rel string) string {
	return strings.TrimPrefix(filepath.Clean("/"+rel), "/")
}

// Place copies the staged tree of a package onto the root. Text
// files that were modified since they were last placed are kept
// and the incoming version is written next to them with the
// DivertSuffix. The diverted paths are returned.
func (t *Tracker) Place(ctx context.Context, staged string, meta *v1.PackageMetadata) ([]string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", meta.Package, "version", meta.Version)
	log.V(1).Info("placing package files")

	diverted := map[string]bool{}
	for _, f := range meta.Files {
		rel := normalise(f)
		target := t.layout.Path(rel)
		if !fileutil.IsRegular(target) {
			continue
		}
		modified, err := t.Modified(meta.Package, rel)
		if err != nil {
			log.Error(err, "failed to check file for modifications", "file", rel)
			return nil, fmt.Errorf("checking %s: %w", rel, err)
		}
		if modified {
			log.Info("file has been modified locally, installing the new version alongside it", "file", rel, "new", rel+DivertSuffix)
			diverted[rel] = true
			continue
		}
		log.V(5).Info("removing tracked file", "file", rel)
		if err := os.Remove(target); err != nil {
			log.Error(err, "failed to remove tracked file", "file", rel)
			return nil, fmt.Errorf("removing %s: %w", rel, err)
		}
	}

	err := fileutil.CopyTree(ctx, staged, t.layout.Root, func(rel string) string {
		if diverted[normalise(rel)] {
			return rel + DivertSuffix
		}
		return rel
	})
	if err != nil {
		log.Error(err, "failed to copy package tree")
		return nil, fmt.Errorf("copying package tree: %w", err)
	}

	for _, f := range meta.Files {
		rel := normalise(f)
		if err := t.store.EnsureBaselineDir(meta.Package, rel); err != nil {
			return nil, fmt.Errorf("creating baseline directory: %w", err)
		}
		// keep the old baseline so that the local edit
		// is still detected next time
		if diverted[rel] {
			continue
		}
		if err := t.record(meta.Package, rel); err != nil {
			log.Error(err, "failed to record baseline", "file", rel)
			return nil, fmt.Errorf("recording baseline of %s: %w", rel, err)
		}
	}

	out := make([]string, 0, len(diverted))
	for k := range diverted {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Modified reports whether a tracked text file differs from
// its baseline. Binary files and files without a baseline
// are never considered modified.
func (t *Tracker) Modified(pkg, rel string) (bool, error) {
	target := t.layout.Path(rel)
	text, err := fileutil.IsTextFile(target)
	if err != nil || !text {
		return false, err
	}
	baseline, ok, err := t.store.Baseline(pkg, rel)
	if err != nil || !ok {
		return false, err
	}
	current, err := digest.Sha256(target)
	if err != nil {
		return false, err
	}
	return current != baseline, nil
}

func (t *Tracker) record(pkg, rel string) error {
	target := t.layout.Path(rel)
	if !fileutil.IsRegular(target) {
		return nil
	}
	text, err := fileutil.IsTextFile(target)
	if err != nil || !text {
		return err
	}
	sum, err := digest.Sha256(target)
	if err != nil {
		return err
	}
	return t.store.SaveBaseline(pkg, rel, sum)
}
