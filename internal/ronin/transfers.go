package ronin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ronin-scraper/internal/browser"
	"ronin-scraper/internal/components/assert"
	"ronin-scraper/internal/components/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_transfers_open     = "transfers.open"
	report_transfers_collect  = "transfers.collect-identifier"
	report_transfers_row      = "transfers.collect-row"
	report_transfers_rows     = "transfers.rows"
	report_transfers_close    = "transfers.close"
	report_transfers_empty_id = "transfers.empty-identifier"
)

// DefaultWaitTimeout bounds every wait for a page element.
const DefaultWaitTimeout = time.Second * 30

type TransferOptions struct {
	Site     Site
	Locators ListingLocators
	// WaitTimeout bounds the wait for the table body, defaults to DefaultWaitTimeout.
	WaitTimeout time.Duration
	// SettleDelay is slept after scrolling to the bottom of the listing.
	SettleDelay time.Duration
}

// TransferCollector reads the transaction hashes listed for each identifier.
type TransferCollector struct {
	opener browser.Opener
	opts   TransferOptions
	tel    telemetry.API
}

func NewTransferCollector(opener browser.Opener, opts TransferOptions, tel telemetry.API) TransferCollector {
	assert.NotNil(opener)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Site.BaseURL)
	assert.Positive("page size", opts.Site.PageSize)
	assert.NotEmptyStr(opts.Locators.Row)

	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	return TransferCollector{
		opener: opener,
		opts:   opts,
		tel:    tel,
	}
}

type TransferReport struct {
	Records  []TransferRecord
	Failures []Failure
}

// Collect visits the listing of every identifier in order using a single browser
// session. Failing rows and identifiers are reported, recorded in the report and
// skipped. An error is only returned when no session could be opened or ctx is done,
// in which case the report holds what was collected so far.
func (c TransferCollector) Collect(ctx context.Context, identifiers []string) (report TransferReport, err error) {
	driver, err := c.opener.Open(ctx)
	if err != nil {
		c.tel.ReportBroken(report_transfers_open, err)
		return report, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		closeErr := driver.Close()
		if closeErr != nil {
			c.tel.ReportWarning(report_transfers_close, closeErr)
		}
	}()

	for _, id := range identifiers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if id == "" {
			c.tel.ReportWarning(report_transfers_empty_id)
			continue
		}

		records, failures, err := c.collectIdentifier(ctx, driver, id)
		report.Records = append(report.Records, records...)
		report.Failures = append(report.Failures, failures...)
		if err != nil {
			c.tel.ReportBroken(report_transfers_collect, err, id)
			report.Failures = append(report.Failures, newFailure(ScopeIdentifier, id, err))
			skippedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", string(ScopeIdentifier))))
		}
	}

	c.tel.ReportCount(report_transfers_rows, int64(len(report.Records)))
	return report, nil
}

func (c TransferCollector) collectIdentifier(ctx context.Context, driver browser.Driver, id string) ([]TransferRecord, []Failure, error) {
	ctx, span := tracer.Start(ctx, "TransferCollector.collectIdentifier", trace.WithAttributes(
		attribute.String("identifier", id),
	))
	defer span.End()

	fail := func(err error) ([]TransferRecord, []Failure, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	link := c.opts.Site.ListingURL(id)
	c.tel.ReportDebug("processing identifier", id, link)

	err := driver.Navigate(ctx, link)
	if err != nil {
		return fail(err)
	}
	err = driver.WaitPresent(ctx, c.opts.Locators.TableBody, c.opts.WaitTimeout)
	if err != nil {
		return fail(err)
	}
	err = driver.Execute(ctx, c.opts.Locators.ScrollScript)
	if err != nil {
		return fail(err)
	}
	err = settle(ctx, c.opts.SettleDelay)
	if err != nil {
		return fail(err)
	}

	rows, err := driver.QueryAll(ctx, c.opts.Locators.Row)
	if err != nil {
		return fail(err)
	}
	c.tel.ReportDebug("found transaction rows", id, len(rows))
	span.SetAttributes(attribute.Int("rows", len(rows)))

	var records []TransferRecord
	var failures []Failure
	for i, row := range rows {
		txHash, err := c.collectRow(ctx, row)
		if err != nil {
			subject := fmt.Sprintf("%s row %d", id, i)
			if errors.Is(err, browser.ErrElementNotFound) {
				c.tel.ReportWarning(report_transfers_row, err, id, i)
			} else {
				c.tel.ReportBroken(report_transfers_row, err, id, i)
			}
			failures = append(failures, newFailure(ScopeRow, subject, err))
			skippedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", string(ScopeRow))))
			continue
		}
		records = append(records, TransferRecord{
			Identifier: id,
			TxHash:     txHash,
		})
	}

	transfersCounter.Add(ctx, int64(len(records)))
	return records, failures, nil
}

// collectRow reads the transaction hash out of the link in the row's first cell.
func (c TransferCollector) collectRow(ctx context.Context, row browser.Element) (string, error) {
	cells, err := row.QueryAll(ctx, c.opts.Locators.Cell)
	if err != nil {
		return "", err
	}
	if len(cells) == 0 {
		return "", fmt.Errorf("%w: no %s in row", browser.ErrElementNotFound, c.opts.Locators.Cell)
	}

	anchor, err := cells[0].Query(ctx, c.opts.Locators.Link)
	if err != nil {
		return "", fmt.Errorf("no anchor tag found in row: %w", err)
	}

	href, ok, err := anchor.Attr(ctx, "href")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: anchor has no href", ErrExtraction)
	}

	txHash := TxHashFromHref(href)
	if txHash == "" {
		return "", fmt.Errorf("%w: empty href", ErrExtraction)
	}
	return txHash, nil
}
