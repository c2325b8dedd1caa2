package transaction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Felis-Linux/fpkg/pkg/archiveutil"
	"github.com/Felis-Linux/fpkg/pkg/digest"
	"github.com/Felis-Linux/fpkg/pkg/downloader"
	"github.com/Felis-Linux/fpkg/pkg/hooks"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Install retrieves, verifies and places the named packages.
// Every stage completes for the whole batch before the next
// one starts and the first failure aborts the transaction.
// Nothing is placed onto the root unless every package was
// retrieved, verified and extracted and no conflicts exist.
func (t *Transaction) Install(ctx context.Context, names []string) (*Result, error) {
	ctx, log := t.context(ctx)
	e := t.engine

	plans, err := t.resolve(ctx, names)
	if err != nil {
		return nil, err
	}
	result := &Result{Diverted: map[string][]string{}}
	if len(plans) == 0 {
		log.Info("nothing to install")
		return result, nil
	}

	snapshots, err := t.stage(ctx, plans)
	if err != nil {
		return nil, err
	}
	placed := false
	defer func() {
		if !placed {
			t.unstage(ctx, snapshots)
		}
	}()

	if err := t.fetch(ctx, plans); err != nil {
		return nil, err
	}
	if err := t.verify(ctx, plans); err != nil {
		return nil, err
	}
	if err := t.extract(ctx, plans); err != nil {
		return nil, err
	}
	if err := t.checkConflicts(ctx, plans); err != nil {
		return nil, err
	}
	if err := checkOverlap(plans); err != nil {
		log.Error(err, "refusing to install overlapping packages")
		return nil, err
	}

	t.runHook(ctx, hooks.PreInstall)
	placed = true
	for _, p := range plans {
		diverted, err := e.tracker.Place(ctx, filepath.Join(p.dir, p.meta.TreeName()), p.meta)
		if err != nil {
			log.Error(err, "failed to place package", "pkg", p.loc.Name)
			return result, fmt.Errorf("placing %s: %w", p.loc.Name, err)
		}
		result.Installed = append(result.Installed, p.loc.Name)
		if len(diverted) > 0 {
			result.Diverted[p.loc.Name] = diverted
		}
		log.Info("installed package", "pkg", p.loc.Name, "version", p.meta.Version)
	}
	t.runHook(ctx, hooks.PostInstall)

	return result, nil
}

// resolve finds every requested package. Names that are only
// satisfied through the provides of an installed package are
// skipped.
func (t *Transaction) resolve(ctx context.Context, names []string) ([]*plan, error) {
	log := logr.FromContextOrDiscard(ctx)
	e := t.engine

	var plans []*plan
	seen := map[string]bool{}
	for _, name := range names {
		loc, err := e.repos.Lookup(ctx, name)
		if err != nil {
			log.Error(err, "failed to resolve package", "pkg", name)
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		if loc.Provider != "" {
			log.Info("package is provided by an installed package", "pkg", name, "provider", loc.Name, "warning", "skipping")
			continue
		}
		if seen[loc.Name] {
			continue
		}
		seen[loc.Name] = true
		meta, err := e.repos.Metadata(ctx, loc)
		if err != nil {
			log.Error(err, "failed to read package metadata", "pkg", loc.Name)
			return nil, fmt.Errorf("reading metadata of %s: %w", loc.Name, err)
		}
		plans = append(plans, &plan{
			loc:     loc,
			meta:    meta,
			dir:     filepath.Join(e.layout.Staging(), loc.Name),
			archive: filepath.Join(e.layout.Staging(), loc.Name, meta.ArchiveName()),
		})
	}
	return plans, nil
}

// stage copies the metadata of every package into the package
// store and returns what was there before.
func (t *Transaction) stage(ctx context.Context, plans []*plan) (map[string][]byte, error) {
	e := t.engine
	snapshots := map[string][]byte{}
	for _, p := range plans {
		snap, _ := e.store.Snapshot(p.loc.Name)
		snapshots[p.loc.Name] = snap
		if err := e.store.Stage(ctx, p.loc.Name, e.repos.MetadataPath(p.loc)); err != nil {
			t.unstage(ctx, snapshots)
			return nil, fmt.Errorf("staging %s: %w", p.loc.Name, err)
		}
	}
	return snapshots, nil
}

// unstage puts back the records replaced by stage.
func (t *Transaction) unstage(ctx context.Context, snapshots map[string][]byte) {
	log := logr.FromContextOrDiscard(ctx)
	for name, snap := range snapshots {
		if err := t.engine.store.Restore(ctx, name, snap); err != nil {
			log.Error(err, "failed to restore package record", "pkg", name)
		}
	}
}

func (t *Transaction) fetch(ctx context.Context, plans []*plan) error {
	log := logr.FromContextOrDiscard(ctx)

	var requests []downloader.Request
	for _, p := range plans {
		src := p.loc.URL + "/" + p.meta.ArchiveName()
		requests = append(requests,
			downloader.Request{Src: src, Dst: p.archive, Progress: len(plans) == 1},
			downloader.Request{Src: digest.SHA256.Sidecar(src), Dst: digest.SHA256.Sidecar(p.archive)},
			downloader.Request{Src: digest.BLAKE2b.Sidecar(src), Dst: digest.BLAKE2b.Sidecar(p.archive), Optional: true},
		)
	}
	log.Info("downloading packages", "count", len(plans))
	results, err := t.engine.dl.DownloadAll(ctx, requests)
	if err != nil {
		log.Error(err, "failed to download packages")
		return fmt.Errorf("downloading packages: %w", err)
	}
	for i, p := range plans {
		// the optional request is always the third of each package
		if r := results[i*3+2]; !r.OK() {
			log.Info("no BLAKE2b checksum published, only the SHA-256 checksum will be verified", "pkg", p.loc.Name, "warning", r.Err.Error())
			p.skipB2 = true
		}
	}
	return nil
}

func (t *Transaction) verify(ctx context.Context, plans []*plan) error {
	log := logr.FromContextOrDiscard(ctx)
	for _, p := range plans {
		if err := digest.Verify(ctx, digest.SHA256, p.archive, digest.SHA256.Sidecar(p.archive)); err != nil {
			log.Error(err, "failed to verify package", "pkg", p.loc.Name)
			return fmt.Errorf("verifying %s: %w", p.loc.Name, err)
		}
		if p.skipB2 {
			continue
		}
		if err := digest.Verify(ctx, digest.BLAKE2b, p.archive, digest.BLAKE2b.Sidecar(p.archive)); err != nil {
			log.Error(err, "failed to verify package", "pkg", p.loc.Name)
			return fmt.Errorf("verifying %s: %w", p.loc.Name, err)
		}
	}
	return nil
}

// extract unpacks every archive concurrently. Each archive
// owns its own staging directory.
func (t *Transaction) extract(ctx context.Context, plans []*plan) error {
	log := logr.FromContextOrDiscard(ctx)
	log.Info("extracting packages", "count", len(plans))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range plans {
		p := p
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("extracting %s: %v", p.loc.Name, r)
				}
			}()
			if err := archiveutil.Extract(gctx, p.archive, p.dir); err != nil {
				return fmt.Errorf("extracting %s: %w", p.loc.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error(err, "failed to extract packages")
		return err
	}
	return nil
}

// checkConflicts aborts when a package conflicts with a package
// that is installed or part of the same batch.
func (t *Transaction) checkConflicts(ctx context.Context, plans []*plan) error {
	log := logr.FromContextOrDiscard(ctx)

	batch := map[string]bool{}
	for _, p := range plans {
		batch[p.loc.Name] = true
	}
	for _, p := range plans {
		for _, c := range p.meta.Conflicts {
			if c == p.loc.Name {
				continue
			}
			if batch[c] || t.engine.store.IsInstalled(c) {
				err := fmt.Errorf("%w: %s conflicts with %s", ErrConflict, p.loc.Name, c)
				log.Error(err, "refusing to install conflicting package", "pkg", p.loc.Name, "conflict", c)
				return err
			}
		}
	}
	return nil
}

// checkOverlap makes sure no two packages in the
// batch write the same file.
func checkOverlap(plans []*plan) error {
	owners := map[string]string{}
	for _, p := range plans {
		for _, f := range p.meta.Files {
			rel := strings.TrimPrefix(filepath.Clean("/"+f), "/")
			if owner, ok := owners[rel]; ok && owner != p.loc.Name {
				return fmt.Errorf("%w: %s is installed by both %s and %s", ErrFileOverlap, rel, owner, p.loc.Name)
			}
			owners[rel] = p.loc.Name
		}
	}
	return nil
}
