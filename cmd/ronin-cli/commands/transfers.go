package commands

import (
	"ronin-scraper/cmd/ronin-cli/globals"
	"ronin-scraper/cmd/ronin-cli/utils"

	"github.com/spf13/cobra"
)

var transfersBatch *int

func init() {
	transfersBatch = transfersCmd.Flags().Int("batch", 0, "The batch index recorded in the db mirror.")
	rootCmd.AddCommand(transfersCmd)
}

var transfersCmd = &cobra.Command{
	Use:   "transfers <identifiers.csv> <output.csv> [--batch <n>]",
	Short: "Collects the transfers of every identifier in a file.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runner, closeDb := newRunner(globals.Get(cmd.Context()))
		defer closeDb()
		runner.OnTransfers = utils.PrintTransfers

		result := runner.RunTransfers(cmd.Context(), *transfersBatch, args[0], args[1])
		utils.PrintStages(result)
	},
}
