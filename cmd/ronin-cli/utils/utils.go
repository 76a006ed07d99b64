package utils

import (
	"log/slog"
	"os"

	"ronin-scraper/internal/batch"
	"ronin-scraper/internal/ronin"

	"github.com/jedib0t/go-pretty/v6/table"
)

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func PrintTransfers(batchIndex int, records []ronin.TransferRecord) {
	t := NewTable()
	t.SetTitle("Batch %d", batchIndex)
	t.AppendHeader(table.Row{"#", "Axie ID", "Tx Hash"})
	for i, r := range records {
		t.AppendRow(table.Row{i, r.Identifier, r.TxHash})
	}
	t.Render()
}

func PrintDated(records []ronin.DatedRecord) {
	t := NewTable()
	t.AppendHeader(table.Row{"Tx Hash", "Date", "Axie ID", "Status"})
	for _, r := range records {
		t.AppendRow(table.Row{r.TxHash, r.Date, r.Identifier, r.Status.String()})
	}
	t.Render()
}

func PrintStages(stages ...batch.StageResult) {
	t := NewTable()
	t.AppendHeader(table.Row{"Batch", "Stage", "Input", "Outcome", "Written", "Failures", "Aborted by"})
	for _, s := range stages {
		written := 0
		if s.Outcome == batch.OutcomeWritten {
			written = len(s.Transfers) + len(s.Dated)
		}
		aborted := ""
		if abort, ok := s.Abort(); ok {
			aborted = abort.Error()
		}
		t.AppendRow(table.Row{
			s.Batch,
			string(s.Stage),
			s.Input,
			string(s.Outcome),
			written,
			len(s.Failures),
			aborted,
		})
	}
	t.Render()
}
