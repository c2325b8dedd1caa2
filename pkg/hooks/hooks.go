package hooks

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
)

// NewRunner creates a Runner that forwards the output of
// the hook executable to stdout and stderr.
func NewRunner(layout rootfs.Layout, stdout, stderr io.Writer) *Runner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Runner{
		layout: layout,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run invokes the hook executable for a phase and waits for
// it to finish. A root without a hook executable is not
// an error.
func (r *Runner) Run(ctx context.Context, phase Phase) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("phase", phase)

	bin := r.layout.HookExec()
	if _, err := os.Stat(bin); err != nil {
		log.Info("skipping hooks as the hook executable could not be found", "path", bin, "warning", err.Error())
		return nil
	}

	log.V(1).Info("running hooks")
	cmd := exec.CommandContext(ctx, bin, r.layout.Root, string(phase)) //nolint:gosec
	cmd.Dir = r.layout.Root
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		log.Error(err, "hook executable failed", "exitCode", exitCode)
		return fmt.Errorf("running %s hooks: %w", phase, err)
	}
	return nil
}
