package commands

import (
	"fmt"
	"strings"

	"ronin-scraper/internal/ronin"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractDateCmd)
}

var extractDateCmd = &cobra.Command{
	Use:   "extract-date <text...>",
	Short: "Prints the date the date collector would read out of some text.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, ok := ronin.ExtractDate(strings.Join(args, " "))
		if !ok {
			fmt.Println("no date found")
			return
		}
		fmt.Println(date)
	},
}
