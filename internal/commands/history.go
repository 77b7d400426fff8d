package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type HistoryOptions struct {
	JSON bool
}

func addHistory(topLevel *cobra.Command, g *GlobalOptions) {
	ho := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved render sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.build(nil)
			if err != nil {
				return err
			}
			defer eng.Close()

			items := eng.Services.History.List(cmd.Context())
			out := cmd.OutOrStdout()
			if ho.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tIMAGES\tFAV\tPROMPT")
			for _, it := range items {
				fav := ""
				if it.IsFavorite {
					fav = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.ID, it.Timestamp.Local().Format("2006-01-02 15:04"), len(it.Paths), fav, it.Prompt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&ho.JSON, "json", false, "Print JSON instead of a table.")
	topLevel.AddCommand(cmd)
}
