package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// settableFields lists the flags of the set command, one per descriptive field.
var settableFields = []string{
	types.FieldTitle,
	types.FieldAuthor,
	types.FieldDescription,
	types.FieldNotes,
	types.FieldMood,
}

func newSetCmd(a *app) *cobra.Command {
	values := make(map[string]*string, len(settableFields))

	cmd := &cobra.Command{
		Use:   "set <id> [--title T] [--author A] [--description D] [--notes N] [--mood M]",
		Short: "Update descriptive fields of a book",
		Long:  "Update the fields given as flags. The book's ID and creation time never change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changed []string
			for _, f := range settableFields {
				if cmd.Flags().Changed(f) {
					changed = append(changed, f)
				}
			}
			if len(changed) == 0 {
				return userError(errors.New("set: nothing to update (pass at least one field flag)"))
			}

			s, err := a.writeSession(cmd)
			if err != nil {
				return err
			}
			defer s.store.Close()

			i, err := s.find(args[0])
			if err != nil {
				return err
			}
			for _, f := range changed {
				if err := s.books[i].SetField(f, *values[f]); err != nil {
					return userError(fmt.Errorf("set %s: %w", f, err))
				}
			}
			if err := s.save(cmd); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), toOutput(s.books[i]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated book: %s\n", s.books[i].ID)
			return nil
		},
	}

	for _, f := range settableFields {
		values[f] = cmd.Flags().String(f, "", "new "+f)
	}
	return cmd
}
