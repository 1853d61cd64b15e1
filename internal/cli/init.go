package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize bookmood storage",
		Long:  "Create the configuration and data directories and a default config.yaml,\nthen check that the collection can be loaded.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.writeSession(cmd)
			if err != nil {
				return err
			}
			defer s.store.Close()

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "BookMood initialized successfully")
			fmt.Fprintln(w, "  config: ", a.configDir)
			fmt.Fprintln(w, "  data:   ", s.dataDir)
			fmt.Fprintln(w, "  backend:", a.cfg.GetString(cfgKeyBackend))
			fmt.Fprintln(w, "  books:  ", len(s.books))
			return nil
		},
	}
}
