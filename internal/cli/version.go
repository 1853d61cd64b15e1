package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bookmood/pkg/bookmood"
)

const modulePath = "github.com/mesh-intelligence/bookmood"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bookmood version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "bookmood v%s\nmodule: %s\n", bookmood.Version, modulePath)
			return nil
		},
	}
}
