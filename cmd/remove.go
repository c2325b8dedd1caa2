package cmd

import (
	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <package>...",
	Aliases: []string{"r"},
	Short:   "Removes installed packages",
	Args:    cobra.MinimumNArgs(1),
	RunE:    remove,
}

func remove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	if err := requireRoot(e.Layout().Root); err != nil {
		return err
	}

	summary(cmd, args)
	if err := confirm(cmd, "You are about to remove the above packages, are you sure?"); err != nil {
		return err
	}

	txn, err := e.Begin(ctx, v1.OperationRemove)
	if err != nil {
		return err
	}
	defer txn.Close()

	// removal is best effort, so a package that
	// could not be removed is not a failure
	if err := txn.Remove(ctx, args); err != nil {
		log.Error(err, "some packages could not be removed")
	}
	log.Info("transaction done")
	return nil
}
