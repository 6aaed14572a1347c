package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"github.com/debsscc/Game-Data-Automation/dom"
)

// pageDocument is a dom.Document backed by a live rod page.
type pageDocument struct {
	page          *rod.Page
	scriptTimeout time.Duration
}

// Wait retries the selector until it matches or timeout expires.
func (d *pageDocument) Wait(ctx context.Context, sel string, timeout time.Duration) (dom.Element, error) {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(sel)
	if err != nil {
		return nil, err
	}
	return d.element(ctx, el), nil
}

// WaitInteractable is Wait plus waiting until the element can be clicked.
func (d *pageDocument) WaitInteractable(ctx context.Context, sel string, timeout time.Duration) (dom.Element, error) {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(sel)
	if err != nil {
		return nil, err
	}
	if _, err := el.WaitInteractable(); err != nil {
		return nil, err
	}
	return d.element(ctx, el), nil
}

// QueryAll returns every current match without waiting.
func (d *pageDocument) QueryAll(ctx context.Context, sel string) ([]dom.Element, error) {
	p := d.page.Context(ctx).Timeout(d.scriptTimeout)
	defer p.CancelTimeout()

	els, err := p.Elements(sel)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = d.element(ctx, el)
	}
	return out, nil
}

// navigationPoll is how often WaitNavigated rechecks the page.
const navigationPoll = 100 * time.Millisecond

// WaitNavigated polls until the page has left from and its new document is
// past the loading state. Script errors while the old document is torn down
// count as not yet navigated.
func (d *pageDocument) WaitNavigated(ctx context.Context, from string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(navigationPoll)
	defer ticker.Stop()

	for {
		if d.navigated(ctx, from) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", dom.ErrNotNavigated, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *pageDocument) navigated(ctx context.Context, from string) bool {
	p := d.page.Context(ctx).Timeout(d.scriptTimeout)
	defer p.CancelTimeout()

	res, err := p.Eval(`(from) => window.location.href !== from && document.readyState !== "loading"`, from)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// StopLoading cancels any pending loads on the page.
func (d *pageDocument) StopLoading(ctx context.Context) error {
	p := d.page.Context(ctx).Timeout(d.scriptTimeout)
	defer p.CancelTimeout()
	return p.StopLoading()
}

// URL returns the address of the current page, or "" when it cannot be read.
func (d *pageDocument) URL(ctx context.Context) string {
	p := d.page.Context(ctx).Timeout(d.scriptTimeout)
	defer p.CancelTimeout()

	res, err := p.Eval(`() => window.location.href`)
	if err != nil {
		slog.Debug("reading page url failed", "error", err)
		return ""
	}
	return res.Value.Str()
}

// element rebinds el to the request context so it outlives the wait that
// found it.
func (d *pageDocument) element(ctx context.Context, el *rod.Element) dom.Element {
	return &pageElement{el: el.Context(ctx), timeout: d.scriptTimeout}
}

// pageElement is a dom.Element backed by a rod element. Every call is
// bounded by the script timeout.
type pageElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *pageElement) do(fn func(el *rod.Element) error) error {
	el := e.el.Timeout(e.timeout)
	defer el.CancelTimeout()
	return fn(el)
}

func (e *pageElement) Text() (text string, err error) {
	err = e.do(func(el *rod.Element) error {
		text, err = el.Text()
		return err
	})
	return text, err
}

func (e *pageElement) Attribute(name string) (value string, ok bool, err error) {
	err = e.do(func(el *rod.Element) error {
		v, attrErr := el.Attribute(name)
		if attrErr != nil {
			return attrErr
		}
		if v != nil {
			value, ok = *v, true
		}
		return nil
	})
	return value, ok, err
}

// Input replaces the element's current value with text.
func (e *pageElement) Input(text string) error {
	return e.do(func(el *rod.Element) error {
		if err := el.SelectAllText(); err != nil {
			slog.Debug("select all before input failed", "error", err)
		}
		return el.Input(text)
	})
}

// Submit presses Enter in the element.
func (e *pageElement) Submit() error {
	return e.do(func(el *rod.Element) error {
		return el.Type(input.Enter)
	})
}

// Activate clicks the element from script, which works even when it is
// covered by another element. It returns once the click is dispatched; a
// navigation it starts is awaited with WaitNavigated.
func (e *pageElement) Activate() error {
	return e.do(func(el *rod.Element) error {
		_, err := el.Eval(`() => this.click()`)
		return err
	})
}
