package static

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ronin-scraper/internal/browser"
	"ronin-scraper/internal/components/telemetry"
	"ronin-scraper/lib/restyutil"

	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<div class="ronin-table-tbody">
	<div class="ronin-table-row">
		<div class="ronin-table-cell"><a href="/tx/0xabc">0xabc</a></div>
		<div class="ronin-table-cell">transfer</div>
	</div>
	<div class="ronin-table-row">
		<div class="ronin-table-cell">no link</div>
	</div>
</div>
</body></html>`

func openSession(t *testing.T, opts Options) browser.Driver {
	t.Helper()
	driver, err := NewOpener(opts, telemetry.NewRecorder()).Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })
	return driver
}

func TestQueryAndAttributes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	ctx := context.Background()
	driver := openSession(t, Options{})

	require.NoError(t, driver.Navigate(ctx, server.URL+"/token/0x1/42?p=1&ps=25"))
	require.NoError(t, driver.WaitPresent(ctx, ".ronin-table-tbody", time.Second))
	require.NoError(t, driver.Execute(ctx, "window.scrollTo(0, document.body.scrollHeight);"))

	rows, err := driver.QueryAll(ctx, ".ronin-table-row")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	cells, err := rows[0].QueryAll(ctx, ".ronin-table-cell")
	require.NoError(t, err)
	require.Len(t, cells, 2)

	anchor, err := cells[0].Query(ctx, "a")
	require.NoError(t, err)
	href, ok, err := anchor.Attr(ctx, "href")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, server.URL+"/tx/0xabc", href)

	_, ok, err = anchor.Attr(ctx, "title")
	require.NoError(t, err)
	require.False(t, ok)

	cells, err = rows[1].QueryAll(ctx, ".ronin-table-cell")
	require.NoError(t, err)
	_, err = cells[0].Query(ctx, "a")
	require.True(t, errors.Is(err, browser.ErrElementNotFound))

	text, err := cells[0].Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "no link", text)
}

func TestWaitPresentPollsUntilRendered(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			fmt.Fprint(w, `<html><body><div class="loading"></div></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><div class="-mb-8">01 Apr 2023</div></body></html>`)
	}))
	defer server.Close()

	ctx := context.Background()
	driver := openSession(t, Options{PollInterval: time.Millisecond * 10})

	require.NoError(t, driver.Navigate(ctx, server.URL+"/tx/0xabc"))
	require.NoError(t, driver.WaitPresent(ctx, "div.-mb-8", time.Second*5))
	require.GreaterOrEqual(t, hits.Load(), int32(3))

	el, err := driver.Query(ctx, "div.-mb-8")
	require.NoError(t, err)
	text, err := el.Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "01 Apr 2023", text)
}

func TestWaitPresentExpires(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	defer server.Close()

	ctx := context.Background()
	driver := openSession(t, Options{PollInterval: time.Millisecond * 10})

	require.NoError(t, driver.Navigate(ctx, server.URL))
	err := driver.WaitPresent(ctx, ".ronin-table-tbody", time.Millisecond*50)
	require.Error(t, err)
	require.True(t, errors.Is(err, browser.ErrWaitExpired))
}

func TestNavigateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	driver := openSession(t, Options{})
	err := driver.Navigate(context.Background(), server.URL)
	require.Error(t, err)

	_, err = driver.QueryAll(context.Background(), "a")
	require.Error(t, err)
}

func TestDumpFetchedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	dump := restyutil.NewMemoryOutput()
	driver := openSession(t, Options{Dump: dump})
	require.NoError(t, driver.Navigate(context.Background(), server.URL+"/token/0x1/42"))

	messages := dump.Messages()
	require.Len(t, messages, 1)
	require.Contains(t, messages["1"], "ronin-table-tbody")
}
