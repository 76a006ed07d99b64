// Package static implements browser.Driver over plain HTTP: pages are fetched with
// resty and queried with goquery. Scripts are not executed, so waiting for an element
// means re-fetching the page until it shows up.
package static

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"ronin-scraper/internal/browser"
	"ronin-scraper/internal/components/assert"
	"ronin-scraper/internal/components/telemetry"
	"ronin-scraper/lib/restyutil"
	"ronin-scraper/pkg/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const report_session_fetch = "session.fetch"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	UserAgent string
	// PollInterval is the delay between fetches while waiting for an element.
	PollInterval time.Duration
	// RequestTimeout bounds a single fetch.
	RequestTimeout time.Duration
	// Dump receives every fetched page, can be nil.
	Dump restyutil.Output
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = time.Second * 30
	}
	return o
}

// Opener creates a fresh http client (and cookie state) per session.
type Opener struct {
	opts Options
	tel  telemetry.API
}

func NewOpener(opts Options, tel telemetry.API) Opener {
	assert.NotNil(tel)
	return Opener{
		opts: opts.withDefaults(),
		tel:  telemetry.NewScopedAPI("static", tel),
	}
}

func (o Opener) Open(ctx context.Context) (browser.Driver, error) {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", o.opts.UserAgent)
	client.SetTimeout(o.opts.RequestTimeout)
	telemetry.InstrumentResty(client, o.tel)
	restyutil.InstrumentClient(client, nil, o.opts.Dump)

	return &Session{
		http: client,
		opts: o.opts,
		tel:  o.tel,
	}, nil
}

// Session holds the last fetched document.
type Session struct {
	http *resty.Client
	opts Options
	tel  telemetry.API

	url *url.URL
	doc *goquery.Document
}

func (s *Session) fetch(ctx context.Context) error {
	res, err := s.http.R().
		SetContext(ctx).
		Get(s.url.String())
	if err != nil {
		return fmt.Errorf("fetch %s: %w", s.url, err)
	}
	if res.IsError() {
		return fmt.Errorf("fetch %s: unexpected status %s", s.url, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.url, err)
	}
	s.doc = doc
	return nil
}

func (s *Session) Navigate(ctx context.Context, link string) error {
	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	s.url = parsed
	s.doc = nil
	return s.fetch(ctx)
}

func (s *Session) page() (*goquery.Document, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return s.doc, nil
}

func (s *Session) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	if _, err := s.page(); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for {
		if s.doc != nil && s.doc.Find(selector).Length() > 0 {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: %s after %v", browser.ErrWaitExpired, selector, timeout)
		}

		timer := time.NewTimer(min(s.opts.PollInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if time.Until(deadline) <= 0 {
			continue
		}
		err := s.fetch(ctx)
		if err != nil {
			// a failed refetch keeps the previous document, the wait itself is what times out
			s.tel.ReportWarning(report_session_fetch, err)
		}
	}
}

// Execute does nothing, there is no script engine behind a static page.
func (s *Session) Execute(ctx context.Context, script string) error {
	s.tel.ReportDebug("script ignored", script)
	return nil
}

func (s *Session) wrap(sel *goquery.Selection) []browser.Element {
	elements := make([]browser.Element, sel.Length())
	sel.Each(func(i int, item *goquery.Selection) {
		elements[i] = element{session: s, sel: item}
	})
	return elements
}

func first(elements []browser.Element, selector string) (browser.Element, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return elements[0], nil
}

func (s *Session) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	doc, err := s.page()
	if err != nil {
		return nil, err
	}
	return s.wrap(doc.Find(selector)), nil
}

func (s *Session) Query(ctx context.Context, selector string) (browser.Element, error) {
	elements, err := s.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	return first(elements, selector)
}

func (s *Session) Close() error {
	s.doc = nil
	s.http.GetClient().CloseIdleConnections()
	return nil
}

type element struct {
	session *Session
	sel     *goquery.Selection
}

func (e element) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return e.session.wrap(e.sel.Find(selector)), nil
}

func (e element) Query(ctx context.Context, selector string) (browser.Element, error) {
	return first(e.session.wrap(e.sel.Find(selector)), selector)
}

// Attr resolves href attributes against the page url, matching what a browser
// reports for an anchor's href.
func (e element) Attr(ctx context.Context, name string) (string, bool, error) {
	value, ok := e.sel.Attr(name)
	if !ok {
		return "", false, nil
	}
	if name == "href" {
		value = htmlutil.ResolveHref(e.session.url, value)
	}
	return value, true, nil
}

func (e element) Text(ctx context.Context) (string, error) {
	return htmlutil.RenderedText(e.sel.Nodes), nil
}
