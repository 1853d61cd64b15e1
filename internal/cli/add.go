package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bookmood/pkg/types"
)

func newAddCmd(a *app) *cobra.Command {
	var title, author, description, notes, mood string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.writeSession(cmd)
			if err != nil {
				return err
			}
			defer s.store.Close()

			book := types.NewBook(time.Now())
			if cmd.Flags().Changed("title") {
				book.Title = title
			}
			book.Author = author
			book.Description = description
			book.Notes = notes
			book.Mood = mood

			s.books = append(s.books, book)
			if err := s.save(cmd); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), toOutput(book))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book: %s\n", book.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", types.DefaultTitle, "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&mood, "mood", "", "mood tag")
	return cmd
}
