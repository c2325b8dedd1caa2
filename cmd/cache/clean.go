package cache

import (
	"fmt"
	"os"

	"github.com/Felis-Linux/fpkg/pkg/config"
	"github.com/Felis-Linux/fpkg/pkg/lockfile"
	"github.com/Felis-Linux/fpkg/pkg/rootfs"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCleanCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Removes the cached repository databases and any leftover downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), v)
			if err != nil {
				return err
			}
			return clean(cmd, rootfs.NewLayout(cfg.Root))
		},
	}
}

func clean(cmd *cobra.Command, layout rootfs.Layout) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	guard, err := lockfile.Acquire(cmd.Context(), layout.Lockfile())
	if err != nil {
		return err
	}
	defer guard.Release()

	for _, dir := range []string{layout.RepoCache(), layout.Staging()} {
		log.Info("deleting cache dir", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing cache dir: %w", err)
		}
	}
	return nil
}
