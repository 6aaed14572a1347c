// Package dom describes the small slice of a rendered document that the
// extraction workflow needs: waiting for elements, querying them, and a few
// interactions. The browser-backed implementation lives in package scraper;
// Replay in this package serves saved HTML through the same interfaces.
package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// ErrNotFound is returned when no element matches a selector.
var ErrNotFound = errors.New("dom: no element matches")

// ErrNotNavigated is returned when a document stays at the same address.
var ErrNotNavigated = errors.New("dom: document did not navigate")

// Element is one node of the current document.
type Element interface {
	// Text returns the rendered text of the element.
	Text() (string, error)

	// Attribute returns the named attribute and whether it is present.
	Attribute(name string) (string, bool, error)

	// Input clears the element's value and types text into it.
	Input(text string) error

	// Submit sends an Enter key press to the element.
	Submit() error

	// Activate clicks the element via script rather than pointer input.
	Activate() error
}

// Document is the page a session is currently showing.
type Document interface {
	// Wait blocks up to timeout for an element matching selector to exist.
	Wait(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// WaitInteractable blocks up to timeout for an element matching
	// selector to exist and be able to receive input.
	WaitInteractable(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// QueryAll returns every current match without waiting.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// WaitNavigated blocks up to timeout until the document has left the
	// address from and the new page has started rendering.
	WaitNavigated(ctx context.Context, from string, timeout time.Duration) error

	// StopLoading halts any pending resource loads, including a navigation
	// that has not committed yet.
	StopLoading(ctx context.Context) error

	// URL returns the address of the document.
	URL(ctx context.Context) string
}

// Session is a live browser session able to open documents.
type Session interface {
	Open(ctx context.Context, url string) (Document, error)
}

// Locators is an ordered list of alternative CSS selectors for the same
// logical element. The first one that matches wins.
type Locators []string

// Validate compiles every selector and reports the first one that is invalid.
func (l Locators) Validate() error {
	if len(l) == 0 {
		return errors.New("dom: empty locator list")
	}
	for _, sel := range l {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return fmt.Errorf("dom: invalid selector %q: %w", sel, err)
		}
	}
	return nil
}

// Union joins all locators into one selector group.
func (l Locators) Union() string {
	return strings.Join(l, ", ")
}

// First returns the primary locator, or "" for an empty list.
func (l Locators) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
