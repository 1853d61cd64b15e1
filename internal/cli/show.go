package cli

import (
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display a book with all its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readSession(cmd)
			if err != nil {
				return err
			}
			defer s.store.Close()

			i, err := s.find(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), toOutput(s.books[i]))
			}
			printBook(cmd.OutOrStdout(), s.books[i])
			return nil
		},
	}
}
