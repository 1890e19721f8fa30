// Package browser defines the page-automation capabilities the scraper needs
// and provides two implementations: Chrome drives a real browser through the
// DevTools protocol, Snapshot evaluates the same XPath selectors over in-memory
// HTML for tests.
package browser

import (
	"context"
	"errors"
)

// ErrElementNotFound is returned when a selector matches nothing on the current page
var ErrElementNotFound = errors.New("element not found")

// Page is one browser tab holding an authenticated session.
// Selectors are XPath expressions.
type Page interface {
	// Navigate loads url and waits until the network is idle
	Navigate(ctx context.Context, url string) error
	// WaitIdle waits until the network is idle. After Click it first waits for the
	// requests the click triggers, e.g. a form submit
	WaitIdle(ctx context.Context) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// Exists reports whether selector matches an element without waiting for one
	Exists(ctx context.Context, selector string) (bool, error)
	// Attribute returns the named attribute of the first match and whether it was set
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	// Text returns the text content of the first match
	Text(ctx context.Context, selector string) (string, error)
	// OpenAux opens an auxiliary page sharing this page's cookies
	OpenAux(ctx context.Context) (AuxPage, error)
	Close() error
}

// AuxPage is a short-lived secondary tab used to fetch resources with the session's cookies
type AuxPage interface {
	// FetchBytes loads url in the tab and returns the raw response body, read in page context
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	Close() error
}
