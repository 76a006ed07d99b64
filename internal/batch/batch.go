// Package batch runs the transfer and date stages over numbered input files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ronin-scraper/internal/components/assert"
	"ronin-scraper/internal/components/telemetry"
	"ronin-scraper/internal/ronin"
	"ronin-scraper/internal/tabular"
)

const (
	report_batch_transfers  = "batch.transfers"
	report_batch_dates      = "batch.dates"
	report_batch_mirror     = "batch.mirror"
	report_batch_skip_dates = "batch.skip-dates"
	report_batch_stale      = "batch.stale-transfers"
)

// Paths names the files of every batch, patterns take the batch index.
type Paths struct {
	InputPattern     string
	TransfersPattern string
	// DatesFile is shared by every batch.
	DatesFile string
}

func DefaultPaths() Paths {
	return Paths{
		InputPattern:     "axie_ids_%d.csv",
		TransfersPattern: "ronin_transfers%d.csv",
		DatesFile:        "tx_dates.csv",
	}
}

func (p Paths) Input(batch int) string {
	return fmt.Sprintf(p.InputPattern, batch)
}

func (p Paths) Transfers(batch int) string {
	return fmt.Sprintf(p.TransfersPattern, batch)
}

// Mirror receives a copy of everything written to the output files.
type Mirror interface {
	SaveTransfers(ctx context.Context, batch int, records []ronin.TransferRecord) error
	SaveDated(ctx context.Context, batch int, records []ronin.DatedRecord) error
}

type Outcome string

const (
	// OutcomeWritten means records were written to the output file.
	OutcomeWritten Outcome = "written"
	// OutcomeEmpty means the stage ran but collected nothing, the output file was not touched.
	OutcomeEmpty Outcome = "empty"
	// OutcomeSkipped means the stage did not run because its input does not exist.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeAborted means the stage failed as a whole, see the batch-scope failure.
	OutcomeAborted Outcome = "aborted"
)

type Stage string

const (
	StageTransfers Stage = "transfers"
	StageDates     Stage = "dates"
)

type StageResult struct {
	Stage   Stage
	Batch   int
	Input   string
	Output  string
	Outcome Outcome
	// Failures holds every skipped unit, plus a ScopeBatch failure when aborted.
	Failures []ronin.Failure

	// only one of these is filled depending on Stage
	Transfers []ronin.TransferRecord
	Dated     []ronin.DatedRecord
}

// Abort returns the failure that aborted the stage.
func (s StageResult) Abort() (ronin.Failure, bool) {
	for _, f := range s.Failures {
		if f.Scope == ronin.ScopeBatch {
			return f, true
		}
	}
	return ronin.Failure{}, false
}

type Result struct {
	Batch     int
	Transfers StageResult
	Dates     StageResult
}

type Runner struct {
	transfers ronin.TransferCollector
	dates     ronin.DateCollector
	tel       telemetry.API

	// Mirror is optional.
	Mirror Mirror
	// OnTransfers is called with the records of every transfer stage that collected any.
	OnTransfers func(batch int, records []ronin.TransferRecord)
}

func NewRunner(transfers ronin.TransferCollector, dates ronin.DateCollector, tel telemetry.API) *Runner {
	assert.NotNil(tel)
	return &Runner{
		transfers: transfers,
		dates:     dates,
		tel:       telemetry.NewScopedAPI("runner", tel),
	}
}

func (r *Runner) abort(result StageResult, id string, err error) StageResult {
	r.tel.ReportBroken(id, err, result.Batch, result.Input)
	result.Outcome = OutcomeAborted
	result.Failures = append(result.Failures, ronin.Failure{
		Scope:   ronin.ScopeBatch,
		Kind:    ronin.Classify(err),
		Subject: result.Input,
		Err:     err,
	})
	return result
}

func (r *Runner) mirror(ctx context.Context, save func(Mirror) error) {
	if r.Mirror == nil {
		return
	}
	err := save(r.Mirror)
	if err != nil {
		r.tel.ReportBroken(report_batch_mirror, err)
	}
}

// RunTransfers collects the transfers of every identifier in input and writes them
// to output. Nothing is written when no transfer was collected.
func (r *Runner) RunTransfers(ctx context.Context, batch int, input, output string) StageResult {
	result := StageResult{Stage: StageTransfers, Batch: batch, Input: input, Output: output}

	identifiers, err := tabular.ReadIdentifiers(input)
	if err != nil {
		return r.abort(result, report_batch_transfers, err)
	}
	r.tel.ReportDebug("collecting transfers", input, len(identifiers))

	report, err := r.transfers.Collect(ctx, identifiers)
	result.Transfers = report.Records
	result.Failures = report.Failures
	if err != nil {
		return r.abort(result, report_batch_transfers, err)
	}

	if len(report.Records) == 0 {
		r.tel.ReportWarning(report_batch_transfers, "no data found or extraction encountered errors", input)
		result.Outcome = OutcomeEmpty
		return result
	}

	if r.OnTransfers != nil {
		r.OnTransfers(batch, report.Records)
	}

	err = tabular.WriteTransfers(output, report.Records)
	if err != nil {
		return r.abort(result, report_batch_transfers, err)
	}
	r.tel.ReportDebug("data saved", output, len(report.Records))
	result.Outcome = OutcomeWritten

	r.mirror(ctx, func(m Mirror) error {
		return m.SaveTransfers(ctx, batch, report.Records)
	})
	return result
}

// RunDates collects the date of every transfer in input and appends them to output.
// Nothing is appended when no record was produced.
func (r *Runner) RunDates(ctx context.Context, batch int, input, output string) StageResult {
	result := StageResult{Stage: StageDates, Batch: batch, Input: input, Output: output}

	transfers, err := tabular.ReadTransfers(input)
	if err != nil {
		return r.abort(result, report_batch_dates, err)
	}
	r.tel.ReportDebug("collecting dates", input, len(transfers))

	report, err := r.dates.Collect(ctx, transfers)
	result.Dated = report.Records
	result.Failures = report.Failures
	if err != nil {
		return r.abort(result, report_batch_dates, err)
	}

	if len(report.Records) == 0 {
		r.tel.ReportWarning(report_batch_dates, "no data to save", output)
		result.Outcome = OutcomeEmpty
		return result
	}

	err = tabular.AppendDated(output, report.Records)
	if err != nil {
		return r.abort(result, report_batch_dates, err)
	}
	r.tel.ReportDebug("data saved", output, len(report.Records))
	result.Outcome = OutcomeWritten

	r.mirror(ctx, func(m Mirror) error {
		return m.SaveDated(ctx, batch, report.Records)
	})
	return result
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Run runs both stages for every batch index from first to last inclusive. The date
// stage of a batch runs whenever its transfer file exists. A failed batch never stops
// the next one, only ctx does.
func (r *Runner) Run(ctx context.Context, first, last int, paths Paths) []Result {
	var results []Result
	for batch := first; batch <= last; batch++ {
		if ctx.Err() != nil {
			r.tel.ReportWarning(report_batch_transfers, ctx.Err(), batch)
			break
		}

		result := Result{Batch: batch}
		transfersFile := paths.Transfers(batch)

		result.Transfers = r.RunTransfers(ctx, batch, paths.Input(batch), transfersFile)

		present, err := exists(transfersFile)
		switch {
		case err != nil:
			result.Dates = r.abort(StageResult{
				Stage:  StageDates,
				Batch:  batch,
				Input:  transfersFile,
				Output: paths.DatesFile,
			}, report_batch_dates, err)
		case !present:
			r.tel.ReportWarning(report_batch_skip_dates, "file not found, skipping date extraction", transfersFile)
			result.Dates = StageResult{
				Stage:   StageDates,
				Batch:   batch,
				Input:   transfersFile,
				Output:  paths.DatesFile,
				Outcome: OutcomeSkipped,
			}
		default:
			if result.Transfers.Outcome != OutcomeWritten {
				// left over from an earlier run, its dates may already be in the dates file
				r.tel.ReportWarning(
					report_batch_stale,
					"transfer file was not written by this run, dates may be appended twice",
					transfersFile,
					string(result.Transfers.Outcome),
				)
			}
			result.Dates = r.RunDates(ctx, batch, transfersFile, paths.DatesFile)
		}

		results = append(results, result)
	}
	return results
}
