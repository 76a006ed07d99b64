// Package browsertest provides an in-memory browser.Opener for tests. Pages are
// trees of nodes whose children are keyed by the selector that finds them.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ronin-scraper/internal/browser"
)

type Node struct {
	Attrs    map[string]string
	Text     string
	Children map[string][]*Node
	// Err is returned by every read of this node.
	Err error
}

// Link is a node with an href, as found in a listing cell.
func Link(href string) *Node {
	return &Node{Attrs: map[string]string{"href": href}}
}

// El builds a node whose children are all found with the same selector.
func El(selector string, children ...*Node) *Node {
	return &Node{Children: map[string][]*Node{selector: children}}
}

type Page struct {
	Root *Node
	// NavigateErr fails the navigation to this page.
	NavigateErr error
}

// Browser hands out sessions over a fixed set of pages, keyed by url.
type Browser struct {
	Pages   map[string]*Page
	OpenErr error

	mutex   sync.Mutex
	opened  int
	closed  int
	visited []string
	scripts []string
}

func (b *Browser) Open(ctx context.Context) (browser.Driver, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	b.opened++
	return &session{browser: b}, nil
}

// Sessions returns how many sessions were opened and closed.
func (b *Browser) Sessions() (opened, closed int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.opened, b.closed
}

func (b *Browser) Visited() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]string(nil), b.visited...)
}

func (b *Browser) Scripts() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]string(nil), b.scripts...)
}

type session struct {
	browser *Browser
	page    *Page
	closed  bool
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.browser.mutex.Lock()
	s.browser.visited = append(s.browser.visited, url)
	page, ok := s.browser.Pages[url]
	s.browser.mutex.Unlock()

	if !ok {
		return fmt.Errorf("no page at %s", url)
	}
	if page.NavigateErr != nil {
		return page.NavigateErr
	}
	s.page = page
	return nil
}

func (s *session) root() (*Node, error) {
	if s.page == nil || s.page.Root == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return s.page.Root, nil
}

// WaitPresent never sleeps, a missing element expires immediately.
func (s *session) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	if len(root.Children[selector]) == 0 {
		return fmt.Errorf("%w: %s after %v", browser.ErrWaitExpired, selector, timeout)
	}
	return nil
}

func (s *session) Execute(ctx context.Context, script string) error {
	s.browser.mutex.Lock()
	defer s.browser.mutex.Unlock()
	s.browser.scripts = append(s.browser.scripts, script)
	return nil
}

func (s *session) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	root, err := s.root()
	if err != nil {
		return nil, err
	}
	return element{node: root}.QueryAll(ctx, selector)
}

func (s *session) Query(ctx context.Context, selector string) (browser.Element, error) {
	root, err := s.root()
	if err != nil {
		return nil, err
	}
	return element{node: root}.Query(ctx, selector)
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.browser.mutex.Lock()
	defer s.browser.mutex.Unlock()
	s.browser.closed++
	return nil
}

type element struct {
	node *Node
}

func (e element) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if e.node.Err != nil {
		return nil, e.node.Err
	}
	children := e.node.Children[selector]
	elements := make([]browser.Element, len(children))
	for i, c := range children {
		elements[i] = element{node: c}
	}
	return elements, nil
}

func (e element) Query(ctx context.Context, selector string) (browser.Element, error) {
	elements, err := e.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return elements[0], nil
}

func (e element) Attr(ctx context.Context, name string) (string, bool, error) {
	if e.node.Err != nil {
		return "", false, e.node.Err
	}
	value, ok := e.node.Attrs[name]
	return value, ok, nil
}

func (e element) Text(ctx context.Context) (string, error) {
	if e.node.Err != nil {
		return "", e.node.Err
	}
	return e.node.Text, nil
}
