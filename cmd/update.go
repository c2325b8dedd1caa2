package cmd

import (
	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"u"},
	Short:   "Updates the package database and every outdated package",
	Args:    cobra.NoArgs,
	RunE:    update,
}

func update(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	if err := requireRoot(e.Layout().Root); err != nil {
		return err
	}

	txn, err := e.Begin(ctx, v1.OperationUpdate)
	if err != nil {
		return err
	}
	defer txn.Close()

	if err := txn.Sync(ctx, true); err != nil {
		return err
	}
	if err := confirm(cmd, "You are about to update the system, are you sure?"); err != nil {
		return err
	}
	result, err := txn.Update(ctx)
	report(cmd, result)
	if err != nil {
		return err
	}
	log.Info("transaction done", "updated", len(result.Installed))
	return nil
}
