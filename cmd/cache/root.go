package cache

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewCommand creates the cache command group. The configuration
// is resolved through v so that root flags and environment
// overrides apply.
func NewCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache utilities",
	}
	cmd.AddCommand(newCleanCommand(v))
	return cmd
}
