package commands

import (
	"ronin-scraper/cmd/ronin-cli/globals"
	"ronin-scraper/cmd/ronin-cli/utils"

	"github.com/spf13/cobra"
)

var datesBatch *int

func init() {
	datesBatch = datesCmd.Flags().Int("batch", 0, "The batch index recorded in the db mirror.")
	rootCmd.AddCommand(datesCmd)
}

var datesCmd = &cobra.Command{
	Use:   "dates <transfers.csv> [output.csv] [--batch <n>]",
	Short: "Collects the date of every transfer in a file and appends them to the dates file.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())
		output := value.Config.Batches.DatesFile
		if len(args) > 1 {
			output = args[1]
		}

		runner, closeDb := newRunner(value)
		defer closeDb()

		result := runner.RunDates(cmd.Context(), *datesBatch, args[0], output)
		if len(result.Dated) > 0 {
			utils.PrintDated(result.Dated)
		}
		utils.PrintStages(result)
	},
}
