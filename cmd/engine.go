package cmd

import (
	"fmt"
	"os"

	"github.com/Felis-Linux/fpkg/pkg/config"
	"github.com/Felis-Linux/fpkg/pkg/downloader"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/Felis-Linux/fpkg/pkg/transaction"
	"github.com/spf13/cobra"
)

// newEngine loads the configuration and prepares
// a transaction engine for the configured root.
func newEngine(cmd *cobra.Command) (*transaction.Engine, error) {
	cfg, err := config.Load(cmd.Context(), viperConfig)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	opts := transaction.Options{
		Repositories: cfg.Sources,
		HookStdout:   cmd.OutOrStdout(),
		HookStderr:   cmd.ErrOrStderr(),
	}
	if progress, _ := cmd.Flags().GetBool(flagProgress); progress {
		opts.Progress = downloader.NewProgressBar(os.Stderr)
	}
	return transaction.New(rootfs.NewLayout(cfg.Root), opts), nil
}

// report tells the user about files that were not
// replaced because they were modified locally.
func report(cmd *cobra.Command, result *transaction.Result) {
	if result == nil {
		return
	}
	for _, pkg := range result.Installed {
		for _, f := range result.Diverted[pkg] {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "! %s: %s was modified, the new version was installed as %s.new\n", pkg, f, f)
		}
	}
}
