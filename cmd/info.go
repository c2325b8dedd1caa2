package cmd

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:     "packageinfo <package>...",
	Aliases: []string{"p"},
	Short:   "Shows information about installed packages",
	Args:    cobra.MinimumNArgs(1),
	RunE:    info,
}

func info(cmd *cobra.Command, args []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range args {
		meta, err := e.Store().Get(cmd.Context(), name)
		if err != nil {
			log.Error(err, "package not found", "pkg", name)
			continue
		}
		_, _ = fmt.Fprintf(out, "package: %s\nversion: %s\n", meta.Package, meta.Version)
		printList(out, "files", meta.Files)
		printList(out, "dependencies", meta.Dependencies)
		printList(out, "conflicts", meta.Conflicts)
		printList(out, "provides", meta.Provides)
	}
	return nil
}

func printList(w io.Writer, title string, items []string) {
	_, _ = fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		_, _ = fmt.Fprintln(w, item)
	}
}
