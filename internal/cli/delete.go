package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bookmood/pkg/types"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a book from the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.writeSession(cmd)
			if err != nil {
				return err
			}
			defer s.store.Close()

			i, err := s.find(args[0])
			if err != nil {
				return err
			}
			id := s.books[i].ID
			if s.books, err = types.RemoveBook(s.books, id); err != nil {
				return userError(err)
			}
			if err := s.save(cmd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted book: %s\n", id)
			return nil
		},
	}
}
