package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Bardin08/docify/internal/app"
)

func newHistoryCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := container.History.Recent(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tPROJECT\tPROVIDER\tOK/TOTAL\tCACHE H/M\tMODE\tDURATION")
			for _, rec := range records {
				mode := "write"
				if rec.DryRun {
					mode = "dry-run"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d/%d\t%s\t%dms\n",
					rec.Timestamp.Format("2006-01-02 15:04"),
					rec.ProjectID, rec.Provider,
					rec.Succeeded, rec.Attempted,
					rec.CacheHits, rec.CacheMisses,
					mode, rec.DurationMS)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
