package cmd

import (
	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var databaseCmd = &cobra.Command{
	Use:     "database",
	Aliases: []string{"db"},
	Short:   "Refreshes the package database of every configured repository",
	Args:    cobra.NoArgs,
	RunE:    database,
}

func database(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	if err := confirm(cmd, "You are about to update the database, are you sure?"); err != nil {
		return err
	}
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	if err := requireRoot(e.Layout().Root); err != nil {
		return err
	}

	txn, err := e.Begin(ctx, v1.OperationSync)
	if err != nil {
		return err
	}
	defer txn.Close()

	if err := txn.Sync(ctx, true); err != nil {
		return err
	}
	log.Info("transaction done")
	return nil
}
