// Package browser describes the page-automation capability the collectors depend on.
// Implementations live in the chrome (real browser) and static (plain HTTP) subpackages.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitExpired is returned by Driver.WaitPresent when the selector did not match
	// anything before the timeout elapsed.
	ErrWaitExpired = errors.New("wait expired")
	// ErrElementNotFound is returned by Query when nothing matches the selector.
	ErrElementNotFound = errors.New("element not found")
)

// Opener acquires a browser session. The returned Driver must be closed by the caller.
type Opener interface {
	Open(ctx context.Context) (Driver, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Driver, error)

func (f OpenerFunc) Open(ctx context.Context) (Driver, error) {
	return f(ctx)
}

// Driver is a single page session, all selectors are CSS selectors.
type Driver interface {
	// Navigate loads the url in the session, replacing the current page.
	Navigate(ctx context.Context, url string) error
	// WaitPresent blocks until an element matching selector exists in the page or
	// the timeout elapses, in which case an error wrapping ErrWaitExpired is returned.
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) error
	// Execute runs a script in page context, its result is discarded.
	Execute(ctx context.Context, script string) error
	// QueryAll returns every element matching selector, it does not wait.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Query returns the first element matching selector or ErrElementNotFound.
	Query(ctx context.Context, selector string) (Element, error)
	Close() error
}

// Element is a node in the current page of a Driver.
type Element interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	Query(ctx context.Context, selector string) (Element, error)
	// Attr returns the value of an attribute and whether it is set.
	Attr(ctx context.Context, name string) (string, bool, error)
	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)
}
