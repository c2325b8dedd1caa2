package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	ErrDeclined = errors.New("you are not sure")
	ErrNotRoot  = errors.New("this operation must be run as root")
)

// summary prints one line per item.
func summary(cmd *cobra.Command, items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "> %s\n", item)
	}
}

// confirm asks a yes or no question on stdin. Anything but
// an explicit yes declines. --yes skips the question.
func confirm(cmd *cobra.Command, question string) error {
	if yes, _ := cmd.Flags().GetBool(flagYes); yes {
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "? %s\n[y/N] ", question)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return ErrDeclined
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return ErrDeclined
	}
}

// requireRoot refuses to modify the running system
// unless we are root.
func requireRoot(root string) error {
	if root == "/" && os.Geteuid() != 0 {
		return ErrNotRoot
	}
	return nil
}
