package ronin

import (
	"context"
	"errors"
	"testing"

	"ronin-scraper/internal/browser"
	bt "ronin-scraper/internal/browser/browsertest"
	"ronin-scraper/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testSite = Site{
	BaseURL:  "https://explorer.test",
	Contract: "0xcontract",
	PageSize: 25,
}

func listingPage(rows ...*bt.Node) *bt.Page {
	return &bt.Page{Root: &bt.Node{Children: map[string][]*bt.Node{
		".ronin-table-tbody": {{}},
		".ronin-table-row":   rows,
	}}}
}

func row(cells ...*bt.Node) *bt.Node {
	return bt.El(".ronin-table-cell", cells...)
}

func linkCell(href string) *bt.Node {
	return bt.El("a", bt.Link(href))
}

func textCell(text string) *bt.Node {
	return &bt.Node{Text: text}
}

func newTransferCollector(b *bt.Browser, tel telemetry.API) TransferCollector {
	return NewTransferCollector(b, TransferOptions{
		Site:     testSite,
		Locators: DefaultListingLocators(),
	}, tel)
}

func TestCollectTransfers(t *testing.T) {
	b := &bt.Browser{Pages: map[string]*bt.Page{
		testSite.ListingURL("1"): listingPage(
			row(linkCell("https://explorer.test/tx/0xABC123"), textCell("Transfer")),
			row(linkCell(" https://explorer.test/address/0xnotx ")),
		),
		testSite.ListingURL("2"): listingPage(),
		testSite.ListingURL("3"): listingPage(
			row(linkCell("/tx/0xdef")),
		),
	}}
	rec := telemetry.NewRecorder()

	report, err := newTransferCollector(b, rec).Collect(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)

	expected := []TransferRecord{
		{Identifier: "1", TxHash: "0xABC123"},
		{Identifier: "1", TxHash: "https://explorer.test/address/0xnotx"},
		{Identifier: "3", TxHash: "0xdef"},
	}
	if diff := cmp.Diff(expected, report.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, report.Failures)

	require.Equal(t, []string{
		testSite.ListingURL("1"),
		testSite.ListingURL("2"),
		testSite.ListingURL("3"),
	}, b.Visited())
	require.Len(t, b.Scripts(), 3)
	require.Equal(t, DefaultListingLocators().ScrollScript, b.Scripts()[0])

	opened, closed := b.Sessions()
	require.Equal(t, 1, opened)
	require.Equal(t, 1, closed)
}

func TestCollectTransfersSkipsRowWithoutLink(t *testing.T) {
	b := &bt.Browser{Pages: map[string]*bt.Page{
		testSite.ListingURL("7"): listingPage(
			row(linkCell("https://explorer.test/tx/0x1")),
			row(textCell("pending"), linkCell("https://explorer.test/tx/0xsecondcell")),
			row(linkCell("https://explorer.test/tx/0x3")),
		),
	}}
	rec := telemetry.NewRecorder()

	report, err := newTransferCollector(b, rec).Collect(context.Background(), []string{"7"})
	require.NoError(t, err)

	require.Equal(t, []TransferRecord{
		{Identifier: "7", TxHash: "0x1"},
		{Identifier: "7", TxHash: "0x3"},
	}, report.Records)

	require.Len(t, report.Failures, 1)
	require.Equal(t, ScopeRow, report.Failures[0].Scope)
	require.Equal(t, KindElementNotFound, report.Failures[0].Kind)
	require.Equal(t, "7 row 1", report.Failures[0].Subject)

	require.True(t, rec.Has(telemetry.KindWarning, report_transfers_row))
	require.False(t, rec.Has(telemetry.KindBroken, report_transfers_row))
}

func TestCollectTransfersRowFailures(t *testing.T) {
	broken := errors.New("stale element")
	noHref := &bt.Node{Attrs: map[string]string{"title": "x"}}
	b := &bt.Browser{Pages: map[string]*bt.Page{
		testSite.ListingURL("9"): listingPage(
			row(),
			&bt.Node{Err: broken},
			row(bt.El("a", noHref)),
			row(bt.El("a", &bt.Node{Err: broken})),
			row(linkCell("https://explorer.test/tx/0xok")),
		),
	}}
	rec := telemetry.NewRecorder()

	report, err := newTransferCollector(b, rec).Collect(context.Background(), []string{"9"})
	require.NoError(t, err)
	require.Equal(t, []TransferRecord{{Identifier: "9", TxHash: "0xok"}}, report.Records)

	kinds := make([]Kind, len(report.Failures))
	for i, f := range report.Failures {
		require.Equal(t, ScopeRow, f.Scope)
		kinds[i] = f.Kind
	}
	require.Equal(t, []Kind{
		KindElementNotFound,
		KindUnknown,
		KindExtraction,
		KindExtraction,
	}, kinds)
	require.True(t, rec.Has(telemetry.KindBroken, report_transfers_row))
}

func TestCollectTransfersIdentifierFailures(t *testing.T) {
	b := &bt.Browser{Pages: map[string]*bt.Page{
		// table body never renders
		testSite.ListingURL("1"): {Root: &bt.Node{}},
		testSite.ListingURL("2"): {NavigateErr: errors.New("net::ERR_CONNECTION_RESET")},
		testSite.ListingURL("3"): listingPage(row(linkCell("https://explorer.test/tx/0x3"))),
	}}
	rec := telemetry.NewRecorder()

	report, err := newTransferCollector(b, rec).Collect(context.Background(), []string{"1", "2", "", "3"})
	require.NoError(t, err)
	require.Equal(t, []TransferRecord{{Identifier: "3", TxHash: "0x3"}}, report.Records)

	require.Len(t, report.Failures, 2)
	require.Equal(t, Failure{
		Scope:   ScopeIdentifier,
		Kind:    KindWaitExpired,
		Subject: "1",
		Err:     report.Failures[0].Err,
	}, report.Failures[0])
	require.True(t, errors.Is(report.Failures[0], browser.ErrWaitExpired))
	require.Equal(t, ScopeIdentifier, report.Failures[1].Scope)
	require.Equal(t, KindUnknown, report.Failures[1].Kind)

	require.True(t, rec.Has(telemetry.KindBroken, report_transfers_collect))
	require.True(t, rec.Has(telemetry.KindWarning, report_transfers_empty_id))

	_, closed := b.Sessions()
	require.Equal(t, 1, closed)
}

func TestCollectTransfersOpenFailure(t *testing.T) {
	b := &bt.Browser{OpenErr: errors.New("chrome not found")}
	rec := telemetry.NewRecorder()

	report, err := newTransferCollector(b, rec).Collect(context.Background(), []string{"1"})
	require.Error(t, err)
	require.Empty(t, report.Records)
	require.True(t, rec.Has(telemetry.KindBroken, report_transfers_open))
}

func TestCollectTransfersCanceled(t *testing.T) {
	b := &bt.Browser{Pages: map[string]*bt.Page{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTransferCollector(b, telemetry.NewRecorder()).Collect(ctx, []string{"1"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, b.Visited())

	opened, closed := b.Sessions()
	require.Equal(t, opened, closed)
}

func TestNewTransferCollectorRequiresPageSize(t *testing.T) {
	site := testSite
	site.PageSize = 0
	require.Panics(t, func() {
		NewTransferCollector(&bt.Browser{}, TransferOptions{
			Site:     site,
			Locators: DefaultListingLocators(),
		}, telemetry.NewRecorder())
	})
}
