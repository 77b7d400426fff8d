package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func addFavorite(topLevel *cobra.Command, g *GlobalOptions) {
	cmd := &cobra.Command{
		Use:     "favorite <id>",
		Aliases: []string{"fav"},
		Short:   "Toggle the favorite mark of a session",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly one session id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.build(nil)
			if err != nil {
				return err
			}
			defer eng.Close()

			state, err := eng.Services.Favorites.Toggle(args[0])
			if err != nil {
				return err
			}
			if state {
				fmt.Fprintf(cmd.OutOrStdout(), "%s marked as favorite\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s unmarked\n", args[0])
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
