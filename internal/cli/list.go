package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List books in collection order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readSession(cmd)
			if err != nil {
				return err
			}
			defer s.store.Close()

			w := cmd.OutOrStdout()
			if a.flags.jsonMode {
				out := make([]bookOutput, len(s.books))
				for i, b := range s.books {
					out[i] = toOutput(b)
				}
				return writeJSON(w, out)
			}
			if len(s.books) == 0 {
				fmt.Fprintln(w, "No books yet. Add one with: bookmood add --title ...")
				return nil
			}
			for _, b := range s.books {
				printBookLine(w, b)
			}
			return nil
		},
	}
}
