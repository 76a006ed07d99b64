package ronin

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	report_dates_open    = "dates.open"
	report_dates_collect = "dates.collect-record"
	report_dates_element = "dates.date-element"
	report_dates_records = "dates.records"
	report_dates_close   = "dates.close"
)

type DateOptions struct {
	Site     Site
	Locators DetailLocators
	// WaitTimeout bounds the wait for the date container, defaults to DefaultWaitTimeout.
	WaitTimeout time.Duration
	// SettleDelay is slept after the date container appeared.
	SettleDelay time.Duration
}

// DateCollector reads the date of each transaction from its detail page.
type DateCollector struct {
	opener browser.Opener
	opts   DateOptions
	tel    telemetry.API
}

func NewDateCollector(opener browser.Opener, opts DateOptions, tel telemetry.API) DateCollector {
	assert.NotNil(opener)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Site.BaseURL)
	assert.NotEmptyStr(opts.Locators.DateContainer)

	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	return DateCollector{
		opener: opener,
		opts:   opts,
		tel:    tel,
	}
}

type DateReport struct {
	Records  []DatedRecord
	Failures []Failure
}

// Collect visits the detail page of every transfer in order using a single browser
// session. A date container that never shows up still produces a record with
// DateUnavailable, any other failure drops the record. An error is only returned
// when no session could be opened or ctx is done.
func (c DateCollector) Collect(ctx context.Context, transfers []TransferRecord) (report DateReport, err error) {
	driver, err := c.opener.Open(ctx)
	if err != nil {
		c.tel.ReportBroken(report_dates_open, err)
		return report, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		closeErr := driver.Close()
		if closeErr != nil {
			c.tel.ReportWarning(report_dates_close, closeErr)
		}
	}()

	for i, transfer := range transfers {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := c.collectRecord(ctx, driver, transfer)
		if err != nil {
			c.tel.ReportBroken(report_dates_collect, err, i, transfer.TxHash)
			report.Failures = append(report.Failures, newFailure(ScopeRecord, transfer.TxHash, err))
			skippedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", string(ScopeRecord))))
			continue
		}
		report.Records = append(report.Records, record)
		datesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", record.Status.String())))
	}

	c.tel.ReportCount(report_dates_records, int64(len(report.Records)))
	return report, nil
}

func (c DateCollector) collectRecord(ctx context.Context, driver browser.Driver, transfer TransferRecord) (DatedRecord, error) {
	txHash := strings.TrimSpace(transfer.TxHash)
	identifier := strings.TrimSpace(transfer.Identifier)

	ctx, span := tracer.Start(ctx, "DateCollector.collectRecord", trace.WithAttributes(
		attribute.String("tx_hash", txHash),
		attribute.String("identifier", identifier),
	))
	defer span.End()

	if txHash == "" {
		err := fmt.Errorf("%w: empty transaction hash", ErrExtraction)
		span.SetStatus(codes.Error, err.Error())
		return DatedRecord{}, err
	}

	link := c.opts.Site.DetailURL(txHash)
	c.tel.ReportDebug("processing url", link)

	err := driver.Navigate(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DatedRecord{}, err
	}

	text, err := c.readDateText(ctx, driver)
	if err != nil {
		if !errors.Is(err, browser.ErrWaitExpired) && !errors.Is(err, browser.ErrElementNotFound) &&
			!errors.Is(err, ErrExtraction) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return DatedRecord{}, err
		}
		c.tel.ReportWarning(report_dates_element, err, txHash)
		span.AddEvent("date unavailable")
		return DatedRecord{
			TxHash:     txHash,
			Status:     DateUnavailable,
			Text:       UnavailableText,
			Identifier: identifier,
		}, nil
	}

	record := DatedRecord{
		TxHash:     txHash,
		Status:     DateUnparseable,
		Text:       text,
		Identifier: identifier,
	}
	if date, ok := ExtractDate(text); ok {
		record.Date = date
		record.Status = DateFound
	}
	span.SetAttributes(attribute.String("date_status", record.Status.String()))
	return record, nil
}

// readDateText waits for the date container and returns its trimmed text.
func (c DateCollector) readDateText(ctx context.Context, driver browser.Driver) (string, error) {
	err := driver.WaitPresent(ctx, c.opts.Locators.DateContainer, c.opts.WaitTimeout)
	if err != nil {
		return "", err
	}
	err = settle(ctx, c.opts.SettleDelay)
	if err != nil {
		return "", err
	}

	el, err := driver.Query(ctx, c.opts.Locators.DateContainer)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, browser.ErrElementNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return strings.TrimSpace(text), nil
}
