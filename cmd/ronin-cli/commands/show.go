package commands

import (
	"ronin-scraper/cmd/ronin-cli/utils"
	"ronin-scraper/internal/tabular"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showHeaderless *bool

func init() {
	showHeaderless = showCmd.Flags().Bool("headerless", false, "The file has no header row, ex. the dates file.")
	rootCmd.AddCommand(showCmd)
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

var showCmd = &cobra.Command{
	Use:   "show <file.csv> [--headerless]",
	Short: "Renders a csv file produced by the other commands.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rows, err := tabular.ReadAll(args[0])
		if err != nil {
			utils.Fatal("failed to read file", err)
		}

		t := utils.NewTable()
		if *showHeaderless {
			t.AppendHeader(toRow(tabular.DatedColumns))
		} else if len(rows) > 0 {
			t.AppendHeader(toRow(rows[0]))
			rows = rows[1:]
		}
		for _, r := range rows {
			t.AppendRow(toRow(r))
		}
		t.Render()
	},
}
