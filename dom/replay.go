package dom

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Replay is a Document backed by a fixed sequence of HTML pages. Submitting a
// form or activating a link advances to the next page, which is enough to
// play back the search workflow without a browser. Waits never block: an
// element is either present in the current page or it is not.
//
// With DeferNavigation, a submit or activation only starts a navigation. It
// commits on the next Wait, WaitInteractable or WaitNavigated and is dropped
// by StopLoading, the way a browser behaves when a click returns before the
// next page arrives.
type Replay struct {
	mu      sync.Mutex
	pages   []*goquery.Document
	urls    []string
	current int

	deferred bool
	pending  bool

	typed       []string
	submits     int
	activations int
	stopped     bool
}

// NewReplay parses each page. At least one page is required.
func NewReplay(pages ...string) (*Replay, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("dom: replay needs at least one page")
	}
	r := &Replay{}
	for i, p := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("dom: parse replay page %d: %w", i, err)
		}
		r.pages = append(r.pages, doc)
		r.urls = append(r.urls, fmt.Sprintf("replay://page/%d", i))
	}
	return r, nil
}

// SetURL overrides the address reported for page i.
func (r *Replay) SetURL(i int, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= 0 && i < len(r.urls) {
		r.urls[i] = url
	}
}

// Open implements Session so a Replay can stand in for a browser session.
func (r *Replay) Open(_ context.Context, _ string) (Document, error) {
	return r, nil
}

// DeferNavigation makes page changes asynchronous.
func (r *Replay) DeferNavigation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred = true
}

// Page returns the index of the page currently shown.
func (r *Replay) Page() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Typed returns every text typed into inputs, in order.
func (r *Replay) Typed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.typed...)
}

// Activations returns how many elements were activated.
func (r *Replay) Activations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activations
}

// Stopped reports whether StopLoading was called.
func (r *Replay) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Replay) Wait(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	r.commit()
	els, err := r.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return els[0], nil
}

func (r *Replay) WaitInteractable(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	return r.Wait(ctx, selector, timeout)
}

func (r *Replay) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := (Locators{selector}).Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	doc := r.pages[r.current]
	r.mu.Unlock()

	var els []Element
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &replayElement{replay: r, sel: s})
	})
	return els, nil
}

func (r *Replay) WaitNavigated(ctx context.Context, from string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.commit()
	if u := r.URL(ctx); u == from {
		return fmt.Errorf("%w: still at %s", ErrNotNavigated, u)
	}
	return nil
}

func (r *Replay) StopLoading(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.pending = false
	return nil
}

func (r *Replay) URL(_ context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.urls[r.current]
}

// navigate starts a page change; r.mu must be held.
func (r *Replay) navigate() {
	if r.deferred {
		r.pending = true
		return
	}
	r.advance()
}

// commit completes a pending navigation.
func (r *Replay) commit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		r.pending = false
		r.advance()
	}
}

// advance moves to the next page, staying on the last one.
func (r *Replay) advance() {
	if r.current < len(r.pages)-1 {
		r.current++
	}
}

type replayElement struct {
	replay *Replay
	sel    *goquery.Selection
}

func (e *replayElement) Text() (string, error) {
	return RenderedText(e.sel), nil
}

func (e *replayElement) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *replayElement) Input(text string) error {
	e.replay.mu.Lock()
	defer e.replay.mu.Unlock()
	e.replay.typed = append(e.replay.typed, text)
	return nil
}

func (e *replayElement) Submit() error {
	e.replay.mu.Lock()
	defer e.replay.mu.Unlock()
	e.replay.submits++
	e.replay.navigate()
	return nil
}

func (e *replayElement) Activate() error {
	e.replay.mu.Lock()
	defer e.replay.mu.Unlock()
	e.replay.activations++
	e.replay.navigate()
	return nil
}
