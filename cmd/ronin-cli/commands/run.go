package commands

import (
	"log/slog"
	"time"

	"ronin-scraper/cmd/ronin-cli/globals"
	"ronin-scraper/cmd/ronin-cli/utils"
	"ronin-scraper/internal/batch"

	"github.com/spf13/cobra"
)

var (
	runFirst *int
	runLast  *int
)

func init() {
	runFirst = runCmd.Flags().Int("first", 0, "The first batch index, overrides the config.")
	runLast = runCmd.Flags().Int("last", 0, "The last batch index, overrides the config.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--first <n>] [--last <n>]",
	Short: "Runs the transfer and date stages for every batch.",
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())
		cfg := value.Config

		first := cfg.Batches.First
		if cmd.Flags().Changed("first") {
			first = *runFirst
		}
		last := cfg.Batches.Last
		if cmd.Flags().Changed("last") {
			last = *runLast
		}

		runner, closeDb := newRunner(value)
		defer closeDb()
		runner.OnTransfers = utils.PrintTransfers

		t1 := time.Now()
		results := runner.Run(cmd.Context(), first, last, cfg.Paths())
		t2 := time.Now()

		var stages []batch.StageResult
		for _, r := range results {
			stages = append(stages, r.Transfers, r.Dates)
		}
		utils.PrintStages(stages...)
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds(), "batches", len(results))
	},
}
