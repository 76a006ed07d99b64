// Package chrome implements browser.Driver on top of a real Chrome instance driven
// through the devtools protocol.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ronin-scraper/internal/browser"
	"ronin-scraper/internal/components/assert"
	"ronin-scraper/internal/components/telemetry"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	report_session_open  = "session.open"
	report_session_close = "session.close"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// hides the most common automation fingerprint before any page script runs
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

type Options struct {
	Headless bool
	// UserAgent defaults to a desktop Chrome user agent when empty.
	UserAgent string
	// ExecPath is the chrome binary, chromedp searches the usual locations when empty.
	ExecPath string
	// NavigateTimeout bounds a single page load.
	NavigateTimeout time.Duration
	// OpTimeout bounds element reads, which otherwise wait for the node to become visible.
	OpTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = time.Minute
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = time.Second * 10
	}
	return o
}

// Launcher starts a new Chrome process for every session it opens.
type Launcher struct {
	opts Options
	tel  telemetry.API
}

func NewLauncher(opts Options, tel telemetry.API) Launcher {
	assert.NotNil(tel)
	return Launcher{
		opts: opts.withDefaults(),
		tel:  telemetry.NewScopedAPI("chrome", tel),
	}
}

func (l Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(l.opts.UserAgent),
		chromedp.WindowSize(1366, 900),
	)
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	return opts
}

func (l Launcher) Open(ctx context.Context) (browser.Driver, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(
		allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			l.tel.ReportDebug(fmt.Sprintf(format, args...))
		}),
	)

	// the first Run allocates the browser, it must be bound to tabCtx and not to a
	// derived context or the browser would die with it
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))
	if err != nil {
		cancelTab()
		cancelAlloc()
		l.tel.ReportBroken(report_session_open, err)
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &Session{
		ctx: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		opts: l.opts,
		tel:  l.tel,
	}, nil
}

// Session is a single Chrome tab.
type Session struct {
	ctx    context.Context
	cancel func()
	opts   Options
	tel    telemetry.API
}

// run executes actions in the tab, aborting when either the timeout elapses or
// the caller's ctx is done.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.tel.ReportDebug("navigate", url)
	err := s.run(ctx, s.opts.NavigateTimeout, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	return waitError(ctx, err, selector, timeout)
}

// waitError tells an expired wait apart from the caller giving up: only the wait's own
// deadline becomes browser.ErrWaitExpired.
func waitError(ctx context.Context, err error, selector string, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %v", browser.ErrWaitExpired, selector, timeout)
	}
	return fmt.Errorf("wait for %s: %w", selector, err)
}

func (s *Session) Execute(ctx context.Context, script string) error {
	var done bool
	wrapped := fmt.Sprintf("(function() { %s; return true; })()", script)
	err := s.run(ctx, s.opts.OpTimeout, chromedp.Evaluate(wrapped, &done))
	if err != nil {
		return fmt.Errorf("execute script: %w", err)
	}
	return nil
}

func (s *Session) queryAll(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]browser.Element, error) {
	var nodes []*cdp.Node
	opts = append(opts, chromedp.ByQueryAll, chromedp.AtLeast(0))
	err := s.run(ctx, s.opts.OpTimeout, chromedp.Nodes(selector, &nodes, opts...))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}

	elements := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		elements[i] = element{session: s, node: n}
	}
	return elements, nil
}

func first(elements []browser.Element, err error, selector string) (browser.Element, error) {
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return elements[0], nil
}

func (s *Session) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return s.queryAll(ctx, selector)
}

func (s *Session) Query(ctx context.Context, selector string) (browser.Element, error) {
	elements, err := s.queryAll(ctx, selector)
	return first(elements, err, selector)
}

// Close gracefully shuts the browser down, the process is killed regardless of the
// returned error.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.tel.ReportWarning(report_session_close, err)
		return err
	}
	return nil
}

type element struct {
	session *Session
	node    *cdp.Node
}

func (e element) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return e.session.queryAll(ctx, selector, chromedp.FromNode(e.node))
}

func (e element) Query(ctx context.Context, selector string) (browser.Element, error) {
	elements, err := e.session.queryAll(ctx, selector, chromedp.FromNode(e.node))
	return first(elements, err, selector)
}

func (e element) Attr(ctx context.Context, name string) (string, bool, error) {
	var value string
	var ok bool
	err := e.session.run(
		ctx, e.session.opts.OpTimeout,
		chromedp.AttributeValue([]cdp.NodeID{e.node.NodeID}, name, &value, &ok, chromedp.ByNodeID),
	)
	if err != nil {
		return "", false, fmt.Errorf("read attribute %s: %w", name, err)
	}
	return value, ok, nil
}

func (e element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.session.run(
		ctx, e.session.opts.OpTimeout,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}
