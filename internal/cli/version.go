package cli

import (
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deckctl version",
		Run: func(cmd *cobra.Command, args []string) {
			app.Printer.Print("deckctl %s", version)
		},
	}
}
