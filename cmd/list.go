package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "Lists installed packages",
	Args:    cobra.NoArgs,
	RunE:    list,
}

func list(cmd *cobra.Command, _ []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	names, err := e.Store().List(cmd.Context())
	if err != nil {
		return err
	}
	for _, name := range names {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
