package commands

import (
	"time"
	"valuator-backend/lib/util/serviceutil"
	"valuator-backend/services/valuation"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Checks target reachability without launching a browser.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := valuation.NewService(valuation.Options{})
		result, err := svc.ProbeTarget(cmd.Context())
		if err != nil {
			serviceutil.Fatal("probe", err)
		}

		t := newTable()
		t.AppendRow(table.Row{"Status", result.StatusCode})
		t.AppendRow(table.Row{"Title", result.Title})
		t.AppendRow(table.Row{"Duration", result.Duration.Round(time.Millisecond).String()})
		t.Render()
	},
}
