package commands

import (
	"fmt"
	"valuator-backend/lib/util/serviceutil"
	"valuator-backend/lib/valstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyDb *string
var historyLimit *int

func init() {
	historyDb = historyCmd.Flags().String("db", "valuations.db", "The valuation history database.")
	historyLimit = historyCmd.Flags().Int("limit", 20, "Maximum number of entries to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path/to/valuations.db>] [--limit <n>]",
	Short: "Lists recently recorded valuations, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := valstore.Open("sqlite", *historyDb)
		if err != nil {
			serviceutil.Fatal("open history db", err)
		}

		entries, err := store.Recent(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("read history", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"When", "Reference", "Target", "Range", "Confidence"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.CreatedAt.Format("2006-01-02 15:04"),
				e.RefNumber,
				fmt.Sprintf("$%d", e.TargetPrice),
				fmt.Sprintf("$%d - $%d", e.MinPrice, e.MaxPrice),
				e.Confidence,
			})
		}
		t.Render()
	},
}
