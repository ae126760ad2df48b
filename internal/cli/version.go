package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the recordkit release.
const Version = "0.3.0"

const modulePath = "github.com/mesh-intelligence/recordkit"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the recordkit version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "recordkit v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
