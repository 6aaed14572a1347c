// Package navigator drives a document from the store front through a search
// to a single product page.
//
// States:
//
//	Loaded → SearchBoxFound → QuerySubmitted → ResultSelected → Stopped
//
// with the terminal failures NoSearchBox and NoResults.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
	"github.com/debsscc/Game-Data-Automation/resolver"
)

// State is a step of the search workflow.
type State int

const (
	Loaded State = iota
	SearchBoxFound
	QuerySubmitted
	ResultSelected
	Stopped
	NoSearchBox
	NoResults
)

var stateNames = map[State]string{
	Loaded:         "loaded",
	SearchBoxFound: "search_box_found",
	QuerySubmitted: "query_submitted",
	ResultSelected: "result_selected",
	Stopped:        "stopped",
	NoSearchBox:    "no_search_box",
	NoResults:      "no_results",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Failed reports whether s is a terminal failure.
func (s State) Failed() bool {
	return s == NoSearchBox || s == NoResults
}

// Trace is the sequence of states a run went through.
type Trace []State

// Final returns the last state reached.
func (t Trace) Final() State {
	if len(t) == 0 {
		return Loaded
	}
	return t[len(t)-1]
}

// Reached reports whether s appears in the trace.
func (t Trace) Reached(s State) bool {
	for _, st := range t {
		if st == s {
			return true
		}
	}
	return false
}

// Policy holds the locators the workflow looks for.
type Policy struct {
	// SearchBox is waited on first (Mid tier); the rest are probed once.
	SearchBox dom.Locators

	// Result is the primary result row, waited on until interactable.
	Result string

	// ResultFallback is queried once when the primary result times out.
	ResultFallback string
}

// DefaultPolicy matches the store's search pages.
var DefaultPolicy = Policy{
	SearchBox: dom.Locators{
		"input#store_nav_search_term",
		"input[name='term']",
		"input[type='search']",
		".searchbox",
	},
	Result:         ".search_result_row",
	ResultFallback: ".search_result_row, .search_result_row a",
}

// Validate checks every locator in the policy.
func (p Policy) Validate() error {
	if err := p.SearchBox.Validate(); err != nil {
		return fmt.Errorf("navigator: search box: %w", err)
	}
	if err := (dom.Locators{p.Result, p.ResultFallback}).Validate(); err != nil {
		return fmt.Errorf("navigator: result: %w", err)
	}
	return nil
}

// Navigator runs the search workflow. It borrows documents; it never
// closes them.
type Navigator struct {
	policy Policy
	tiers  resolver.Tiers
}

// New creates a Navigator.
func New(policy Policy, tiers resolver.Tiers) *Navigator {
	return &Navigator{policy: policy, tiers: tiers}
}

// Run searches for query on doc and opens the first result. On failure the
// trace ends in NoSearchBox or NoResults and the error is a
// *models.ScrapeError with the matching code, or EXTRACTION_TIMEOUT when ctx
// ended first.
func (n *Navigator) Run(ctx context.Context, doc dom.Document, query string) (Trace, error) {
	trace := Trace{Loaded}

	box, err := n.findSearchBox(ctx, doc)
	if err != nil {
		trace = append(trace, NoSearchBox)
		return trace, failure(ctx, models.ErrCodeNoSearchBox, "search box not found", err)
	}
	trace = append(trace, SearchBoxFound)

	if err := submit(box, query); err != nil {
		trace = append(trace, NoSearchBox)
		return trace, failure(ctx, models.ErrCodeNoSearchBox, "search box rejected input", err)
	}
	trace = append(trace, QuerySubmitted)
	slog.Debug("navigator: query submitted", "query", query)

	if err := n.selectResult(ctx, doc); err != nil {
		trace = append(trace, NoResults)
		return trace, failure(ctx, models.ErrCodeNoResults, fmt.Sprintf("no results for %q", query), err)
	}
	trace = append(trace, ResultSelected)

	// Best-effort: the product fields render long before every asset has
	// loaded, so cut loading short.
	if err := doc.StopLoading(ctx); err != nil {
		slog.Debug("navigator: stop loading failed, continuing", "error", err)
		return trace, nil
	}
	return append(trace, Stopped), nil
}

// failure builds the error for a terminal state. A request whose deadline
// passed mid-workflow is reported as a timeout, not as a missing element.
func failure(ctx context.Context, code, msg string, err error) *models.ScrapeError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, msg+": request deadline reached", errors.Join(ctxErr, err))
	}
	return models.NewScrapeError(code, msg, err)
}

func (n *Navigator) findSearchBox(ctx context.Context, doc dom.Document) (dom.Element, error) {
	primary := n.policy.SearchBox.First()
	el, err := doc.Wait(ctx, primary, n.tiers.Mid)
	if err == nil {
		return el, nil
	}
	slog.Debug("navigator: primary search box missing, probing alternates",
		"locator", primary, "error", err)

	for _, sel := range n.policy.SearchBox[1:] {
		els, qErr := doc.QueryAll(ctx, sel)
		if qErr == nil && len(els) > 0 {
			return els[0], nil
		}
	}
	return nil, err
}

func submit(box dom.Element, query string) error {
	if err := box.Input(query); err != nil {
		return fmt.Errorf("input query: %w", err)
	}
	if err := box.Submit(); err != nil {
		return fmt.Errorf("submit query: %w", err)
	}
	return nil
}

var errNoResultRows = errors.New("no result rows")

func (n *Navigator) selectResult(ctx context.Context, doc dom.Document) error {
	el, err := doc.WaitInteractable(ctx, n.policy.Result, n.tiers.Mid)
	if err == nil {
		// The results page is showing now; the product page must replace it.
		from := doc.URL(ctx)
		actErr := el.Activate()
		if actErr == nil {
			return n.waitOpened(ctx, doc, from)
		}
		slog.Debug("navigator: activating first result failed", "error", actErr)
	}

	rows, qErr := doc.QueryAll(ctx, n.policy.ResultFallback)
	if qErr != nil {
		return qErr
	}
	if len(rows) == 0 {
		return errNoResultRows
	}
	from := doc.URL(ctx)
	if actErr := rows[0].Activate(); actErr != nil {
		slog.Debug("navigator: activating fallback result failed, continuing", "error", actErr)
	}
	return n.waitOpened(ctx, doc, from)
}

// waitOpened blocks until the product page replaced the results page, so
// a later StopLoading cannot cancel the navigation to it.
func (n *Navigator) waitOpened(ctx context.Context, doc dom.Document, from string) error {
	if err := doc.WaitNavigated(ctx, from, n.tiers.Mid); err != nil {
		return fmt.Errorf("result did not open: %w", err)
	}
	return nil
}
