package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"roomload/internal/cli"
	"roomload/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs, or show one run's summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(viper.GetString("history"))
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Run %s at %s against %s\n", rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Config.BaseURL)
			cli.PrintSummary(out, rec.Summary)
			return nil
		}

		items, err := store.List()
		if err != nil {
			return err
		}
		renderHistory(out, items)
		return nil
	},
}

func renderHistory(w io.Writer, items []storage.Record) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Time", "Backend", "Users", "Reqs", "Fail", "P99 ms"})
	for _, it := range items {
		table.Append([]string{
			it.ID,
			it.Timestamp.Format("2006-01-02 15:04:05"),
			it.Config.BaseURL,
			fmt.Sprintf("%d", it.Config.Users),
			fmt.Sprintf("%d", it.Summary.TotalRequests),
			fmt.Sprintf("%d", it.Summary.Fail),
			fmt.Sprintf("%.2f", it.Summary.P99LatencyMs),
		})
	}
	table.Render()
}
