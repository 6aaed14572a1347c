// Package finder runs one game search end to end: it acquires a browser
// session, navigates to the product page, extracts the record and infers
// its market signals.
package finder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/debsscc/Game-Data-Automation/config"
	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/extractor"
	"github.com/debsscc/Game-Data-Automation/models"
	"github.com/debsscc/Game-Data-Automation/navigator"
	"github.com/debsscc/Game-Data-Automation/resolver"
	"github.com/debsscc/Game-Data-Automation/signals"
)

// Sessions hands out browser sessions. Every session returned by Acquire
// must be passed to Release exactly once.
type Sessions interface {
	Acquire(ctx context.Context) (dom.Session, error)
	Release(s dom.Session)
}

// Policies groups the locator policies of every stage.
type Policies struct {
	Navigator navigator.Policy
	Extractor extractor.Policy
	Signals   signals.Policy
}

// DefaultPolicies returns the store policies adjusted by cfg.
func DefaultPolicies(cfg config.ExtractionConfig) Policies {
	sig := signals.DefaultPolicy
	if cfg.CurrencyTag != "" {
		sig.CurrencyTag = cfg.CurrencyTag
	}
	if cfg.CompetitorLimit > 0 {
		sig.CompetitorLimit = cfg.CompetitorLimit
	}
	sig.Keywords.WholeWords = cfg.KeywordWholeWords
	return Policies{
		Navigator: navigator.DefaultPolicy,
		Extractor: extractor.DefaultPolicy,
		Signals:   sig,
	}
}

// Validate checks every locator of every stage.
func (p Policies) Validate() error {
	if err := p.Navigator.Validate(); err != nil {
		return err
	}
	if err := p.Extractor.Validate(); err != nil {
		return err
	}
	return p.Signals.Validate()
}

// Finder is safe for concurrent use; each call owns its own session.
type Finder struct {
	sessions Sessions
	cfg      config.ExtractionConfig

	nav *navigator.Navigator
	ext *extractor.Extractor
	sig *signals.Engine
}

// New creates a Finder.
func New(sessions Sessions, cfg config.ExtractionConfig, policies Policies) *Finder {
	res := resolver.New(Tiers(cfg))
	return &Finder{
		sessions: sessions,
		cfg:      cfg,
		nav:      navigator.New(policies.Navigator, res.Tiers()),
		ext:      extractor.New(policies.Extractor, res),
		sig:      signals.New(policies.Signals, res),
	}
}

// Tiers maps the configured waits onto resolver tiers.
func Tiers(cfg config.ExtractionConfig) resolver.Tiers {
	return resolver.Tiers{Short: cfg.ShortWait, Mid: cfg.MidWait}
}

// AttemptExtraction searches the store for query and returns the record of
// the first result. On failure it returns nil and a *models.ScrapeError.
// The acquired session is released exactly once on every path.
func (f *Finder) AttemptExtraction(ctx context.Context, query string) (rec *models.ProductRecord, err error) {
	if f.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.RequestTimeout)
		defer cancel()
	}
	start := time.Now()

	// Registered first so it runs last, after the session is released.
	defer func() {
		if p := recover(); p != nil {
			slog.Error("extraction panicked", "query", query, "panic", p)
			rec = nil
			err = models.NewScrapeError(models.ErrCodeInternal, "extraction failed", fmt.Errorf("panic: %v", p))
		}
	}()

	session, err := f.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.sessions.Release(session)

	doc, err := session.Open(ctx, f.cfg.StoreURL)
	if err != nil {
		if se := models.AsScrapeError(err); se.Code == models.ErrCodeInternal {
			err = models.NewScrapeError(models.ErrCodeNavigation, "failed to open store front", err)
		}
		return nil, err
	}

	trace, err := f.nav.Run(ctx, doc, query)
	if err != nil {
		slog.Info("search did not reach a product page",
			"query", query, "state", trace.Final().String(), "error", err)
		return nil, err
	}

	rec = f.ExtractDocument(ctx, doc, query)
	slog.Info("extraction complete",
		"query", query,
		"url", rec.SourceURL,
		"status", rec.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// ExtractDocument reads a record from a document already showing a product
// page. It never fails; unresolved fields keep their absent values.
func (f *Finder) ExtractDocument(ctx context.Context, doc dom.Document, query string) *models.ProductRecord {
	rec := models.NewProductRecord(query)
	if u := doc.URL(ctx); u != "" {
		rec.SourceURL = u
	}
	f.ext.Extract(ctx, doc, rec)
	rec.MarketSignals = f.sig.Infer(ctx, doc, rec)
	return rec
}
