package cmd

import (
	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:     "install <package>...",
	Aliases: []string{"i"},
	Short:   "Installs packages from the configured repositories",
	Args:    cobra.MinimumNArgs(1),
	RunE:    install,
}

func install(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	if err := requireRoot(e.Layout().Root); err != nil {
		return err
	}

	txn, err := e.Begin(ctx, v1.OperationInstall)
	if err != nil {
		return err
	}
	defer txn.Close()

	if err := txn.Sync(ctx, false); err != nil {
		return err
	}
	names := append(append([]string{}, args...), txn.Expand(ctx, args)...)

	summary(cmd, names)
	if err := confirm(cmd, "You are about to install the above packages, are you sure?"); err != nil {
		return err
	}
	result, err := txn.Install(ctx, names)
	report(cmd, result)
	if err != nil {
		return err
	}
	log.Info("transaction done", "installed", len(result.Installed))
	return nil
}
