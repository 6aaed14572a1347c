// Package resolver reads text and attributes from a document given a list of
// candidate locators and a wait tier. Every primitive is total: it never
// returns an error, never panics, and never waits longer than its tier.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
)

// Tier is a named wait budget for one resolution attempt.
type Tier int

const (
	// Short is for optional fields that are often missing.
	Short Tier = iota
	// Mid is for navigation steps and primary fields.
	Mid
)

func (t Tier) String() string {
	switch t {
	case Short:
		return "short"
	case Mid:
		return "mid"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Tiers maps wait tiers to durations.
type Tiers struct {
	Short time.Duration
	Mid   time.Duration
}

// DefaultTiers are the budgets used when nothing is configured.
var DefaultTiers = Tiers{Short: 6 * time.Second, Mid: 10 * time.Second}

// Duration returns the budget for t.
func (t Tiers) Duration(tier Tier) time.Duration {
	if tier == Mid {
		return t.Mid
	}
	return t.Short
}

// Outcome says how a Result was reached.
type Outcome int

const (
	// Waited means the primary locator matched within the wait budget.
	Waited Outcome = iota
	// Scanned means the zero-wait scan over all locators found a value.
	Scanned
	// Missing means no locator produced a value.
	Missing
	// Faulted means resolution panicked; Value is the sentinel.
	Faulted
)

func (o Outcome) String() string {
	switch o {
	case Waited:
		return "waited"
	case Scanned:
		return "scanned"
	case Missing:
		return "missing"
	case Faulted:
		return "faulted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the diagnostic view of one resolution. Value is always what
// callers should use: the resolved string or models.NA.
type Result struct {
	Value   string
	Outcome Outcome
	// Locator is the selector that produced Value, if any.
	Locator string
	// Err is the last fault seen while resolving, kept for logging only.
	Err error
}

// OK reports whether a value was found.
func (r Result) OK() bool {
	return r.Outcome == Waited || r.Outcome == Scanned
}

func missing(err error) Result {
	return Result{Value: models.NA, Outcome: Missing, Err: err}
}

// Resolver applies the wait-then-scan policy with a fixed set of tiers.
type Resolver struct {
	tiers Tiers
}

// New creates a Resolver. Zero durations fall back to DefaultTiers.
func New(tiers Tiers) *Resolver {
	if tiers.Short <= 0 {
		tiers.Short = DefaultTiers.Short
	}
	if tiers.Mid <= 0 {
		tiers.Mid = DefaultTiers.Mid
	}
	return &Resolver{tiers: tiers}
}

// Tiers returns the configured budgets.
func (r *Resolver) Tiers() Tiers { return r.tiers }

// Text waits up to the tier for the first locator and returns its trimmed
// text. On timeout, fault, or empty text it scans every locator without
// waiting and returns the first non-empty text, else models.NA.
func (r *Resolver) Text(ctx context.Context, doc dom.Document, locs dom.Locators, tier Tier) Result {
	return r.resolve(ctx, doc, locs, tier, true, func(el dom.Element) (string, error) {
		s, err := el.Text()
		return strings.TrimSpace(s), err
	})
}

// Attribute is Text for the named attribute, except that a waited element
// whose attribute is absent or empty resolves to models.NA without a scan.
// In the scan, such elements are skipped.
func (r *Resolver) Attribute(ctx context.Context, doc dom.Document, locs dom.Locators, name string, tier Tier) Result {
	return r.resolve(ctx, doc, locs, tier, false, func(el dom.Element) (string, error) {
		v, _, err := el.Attribute(name)
		return strings.TrimSpace(v), err
	})
}

// Texts returns the trimmed, non-empty texts of every element matched by the
// first locator that matches anything. It does not wait.
func (r *Resolver) Texts(ctx context.Context, doc dom.Document, locs dom.Locators) (texts []string) {
	texts = []string{}
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("resolver: texts panicked", "locators", locs, "panic", p)
			texts = []string{}
		}
	}()

	for _, sel := range locs {
		els, err := doc.QueryAll(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		for _, el := range els {
			if s, err := el.Text(); err == nil {
				if s = strings.TrimSpace(s); s != "" {
					texts = append(texts, s)
				}
			}
		}
		return texts
	}
	return texts
}

// Count returns how many elements match any locator. It does not wait.
func (r *Resolver) Count(ctx context.Context, doc dom.Document, locs dom.Locators) (n int) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("resolver: count panicked", "locators", locs, "panic", p)
			n = 0
		}
	}()

	if len(locs) == 0 {
		return 0
	}
	els, err := doc.QueryAll(ctx, locs.Union())
	if err != nil {
		return 0
	}
	return len(els)
}

// Exists reports whether any locator matches. It does not wait.
func (r *Resolver) Exists(ctx context.Context, doc dom.Document, locs dom.Locators) bool {
	return r.Count(ctx, doc, locs) > 0
}

// resolve runs wait-then-scan. scanOnEmpty says whether a waited element
// that reads as empty still falls through to the scan.
func (r *Resolver) resolve(ctx context.Context, doc dom.Document, locs dom.Locators, tier Tier, scanOnEmpty bool, read func(dom.Element) (string, error)) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Value: models.NA, Outcome: Faulted, Err: fmt.Errorf("resolver: panic: %v", p)}
		}
	}()

	if len(locs) == 0 {
		return missing(nil)
	}

	var lastErr error
	primary := locs.First()
	if el, err := doc.Wait(ctx, primary, r.tiers.Duration(tier)); err == nil {
		v, readErr := read(el)
		if readErr == nil && v != "" {
			return Result{Value: v, Outcome: Waited, Locator: primary}
		}
		if readErr == nil && !scanOnEmpty {
			return Result{Value: models.NA, Outcome: Missing, Locator: primary}
		}
		lastErr = readErr
	} else {
		lastErr = err
	}

	if v, sel, err := r.scan(ctx, doc, locs, read); v != "" {
		return Result{Value: v, Outcome: Scanned, Locator: sel}
	} else if err != nil {
		lastErr = err
	}

	return missing(lastErr)
}

// scan checks every locator once, in order, without waiting.
func (r *Resolver) scan(ctx context.Context, doc dom.Document, locs dom.Locators, read func(dom.Element) (string, error)) (string, string, error) {
	var lastErr error
	for _, sel := range locs {
		els, err := doc.QueryAll(ctx, sel)
		if err != nil {
			lastErr = err
			continue
		}
		if len(els) == 0 {
			continue
		}
		v, err := read(els[0])
		if err != nil {
			lastErr = err
			continue
		}
		if v != "" {
			return v, sel, nil
		}
	}
	return "", "", lastErr
}
