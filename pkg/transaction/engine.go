package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/Felis-Linux/fpkg/pkg/dependency"
	"github.com/Felis-Linux/fpkg/pkg/downloader"
	"github.com/Felis-Linux/fpkg/pkg/hooks"
	"github.com/Felis-Linux/fpkg/pkg/lockfile"
	"github.com/Felis-Linux/fpkg/pkg/packages"
	"github.com/Felis-Linux/fpkg/pkg/repository"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/Felis-Linux/fpkg/pkg/tracker"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

func New(layout rootfs.Layout, opts Options) *Engine {
	store := packages.NewStore(layout)
	dl := downloader.NewDownloader(opts.Progress)
	return &Engine{
		layout:  layout,
		store:   store,
		repos:   repository.NewManager(layout, opts.Repositories, dl, store),
		dl:      dl,
		tracker: tracker.New(layout, store),
		hooks:   hooks.NewRunner(layout, opts.HookStdout, opts.HookStderr),
	}
}

func (e *Engine) Layout() rootfs.Layout {
	return e.layout
}

func (e *Engine) Store() *packages.Store {
	return e.store
}

func (e *Engine) Repositories() *repository.Manager {
	return e.repos
}

// Begin acquires the lock of the root and starts a transaction.
func (e *Engine) Begin(ctx context.Context, op v1.Operation) (*Transaction, error) {
	id := uuid.New().String()
	log := logr.FromContextOrDiscard(ctx).WithValues("txn", id, "op", op)

	guard, err := lockfile.Acquire(ctx, e.layout.Lockfile())
	if err != nil {
		log.Error(err, "failed to acquire lock")
		return nil, err
	}
	log.V(1).Info("started transaction", "root", e.layout.Root)
	return &Transaction{
		ID:        id,
		Operation: op,
		engine:    e,
		guard:     guard,
		log:       log,
	}, nil
}

// Close removes the staging area and releases the lock.
func (t *Transaction) Close() error {
	var errs []error
	if err := os.RemoveAll(t.engine.layout.Staging()); err != nil {
		t.log.Error(err, "failed to clean up staging area")
		errs = append(errs, fmt.Errorf("removing staging area: %w", err))
	}
	if err := t.guard.Release(); err != nil {
		t.log.Error(err, "failed to release lock")
		errs = append(errs, fmt.Errorf("releasing lock: %w", err))
	}
	t.log.V(1).Info("finished transaction")
	return errors.Join(errs...)
}

func (t *Transaction) context(ctx context.Context) (context.Context, logr.Logger) {
	log := logr.FromContextOrDiscard(ctx).WithValues("txn", t.ID)
	return logr.NewContext(ctx, log), log
}

// Sync synchronizes the repository indices.
func (t *Transaction) Sync(ctx context.Context, force bool) error {
	ctx, _ = t.context(ctx)
	return t.engine.repos.Sync(ctx, force)
}

// Expand returns the dependencies the requested packages
// need that are not yet installed.
func (t *Transaction) Expand(ctx context.Context, requested []string) []string {
	ctx, _ = t.context(ctx)
	return dependency.Expand(ctx, t.engine.repos, t.engine.store, requested)
}

// runHook invokes the hook executable. Failures
// never abort the transaction.
func (t *Transaction) runHook(ctx context.Context, phase hooks.Phase) {
	log := logr.FromContextOrDiscard(ctx)
	if err := t.engine.hooks.Run(ctx, phase); err != nil {
		log.Info("hooks failed", "phase", phase, "warning", err.Error())
	}
}
