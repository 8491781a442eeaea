package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "museme v%s\n", Version)
			fmt.Fprintln(cmd.OutOrStdout(), "Lyrics and artist info gateway")
		},
	}
}
