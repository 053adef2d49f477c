package commands

import (
	"fmt"
	"time"
	"valuator-backend/lib/util/serviceutil"
	"valuator-backend/services/valuation"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var headful *bool
var remoteURL *string
var cookiePath *string
var retryOnce *bool

func init() {
	headful = evaluateCmd.Flags().Bool("headful", false, "Run the browser with a visible window.")
	remoteURL = evaluateCmd.Flags().String("remote", "", "Devtools URL of an already-running Chrome.")
	cookiePath = evaluateCmd.Flags().String("cookies", "", "Path for persisting consent cookies between runs.")
	retryOnce = evaluateCmd.Flags().Bool("retry", false, "Retry once with a fresh session on transient failures.")
	rootCmd.AddCommand(evaluateCmd)
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <reference number>",
	Short: "Evaluates a reference number and prints the target price recommendation.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := valuation.NewService(valuation.Options{
			Headless:   !*headful,
			RemoteURL:  *remoteURL,
			CookiePath: *cookiePath,
			RetryOnce:  *retryOnce,
		})

		start := time.Now()
		result, err := svc.Evaluate(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("evaluate", err)
		}

		t := newTable()
		t.AppendRow(table.Row{"Reference", result.RefNumber})
		t.AppendRow(table.Row{"Target Price", fmt.Sprintf("$%d", result.TargetPrice)})
		t.AppendRow(table.Row{"Market Average", fmt.Sprintf("$%d", result.MarketAverage)})
		t.AppendRow(table.Row{"Range", fmt.Sprintf("$%d - $%d", result.PriceRange.Min, result.PriceRange.Max)})
		t.AppendRow(table.Row{"Spread", fmt.Sprintf("%.2f%%", result.PriceRange.SpreadPercentage)})
		t.AppendRow(table.Row{"Confidence", string(result.Confidence)})
		t.AppendRow(table.Row{"Took", time.Since(start).Round(time.Second).String()})
		t.Render()
	},
}
