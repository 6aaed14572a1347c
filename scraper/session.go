package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
)

// State is the lifecycle state of a Session.
type State int32

const (
	Initializing State = iota
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Active:
		return "active"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Session is one browser process owned by a single request. Only the
// Manager creates and closes sessions.
type Session struct {
	manager *Manager
	proc    *process
	state   atomic.Int32

	mu      sync.Mutex
	routers []*rod.HijackRouter
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Open creates a tab and navigates it to url.
//
// Order matters:
//
//  1. Create tab
//  2. Stealth injection      – before navigation, or it never runs
//  3. Request headers        – Accept-Language for the store locale
//  4. Hijack mount           – block images/fonts/media (before navigation!)
//  5. Navigate               – bounded by the page-load timeout
//  6. Wait load              – best-effort; a slow asset never fails Open
func (s *Session) Open(ctx context.Context, url string) (dom.Document, error) {
	if s.State() != Active || s.proc == nil || s.proc.browser == nil {
		return nil, models.NewScrapeError(
			models.ErrCodeNavigation,
			"session is not active",
			fmt.Errorf("session state %s", s.State()),
		)
	}
	cfg := s.manager.extractCfg

	// ── 1. Create tab ─────────────────────────────────────────────────
	page, err := s.proc.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeNavigation,
			"failed to create page",
			err,
		)
	}

	// ── 2. Stealth injection ──────────────────────────────────────────
	if s.manager.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 3. Request headers ────────────────────────────────────────────
	if lang := s.manager.browserCfg.AcceptLanguage; lang != "" {
		if hdrErr := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": lang}),
		}).Call(page); hdrErr != nil {
			slog.Debug("setting request headers failed, proceeding with defaults",
				"error", hdrErr,
			)
		}
	}

	// ── 4. Hijack mount ───────────────────────────────────────────────
	if router := setupHijack(page, cfg.BlockedResourceTypes); router != nil {
		s.mu.Lock()
		s.routers = append(s.routers, router)
		s.mu.Unlock()
	}

	// ── 5. Navigate ───────────────────────────────────────────────────
	p := page.Context(ctx).Timeout(cfg.PageLoadTimeout)
	defer p.CancelTimeout()
	if navErr := p.Navigate(url); navErr != nil {
		return nil, categorizeError(ctx, navErr, "navigation to store front failed")
	}

	// ── 6. Wait load ──────────────────────────────────────────────────
	if loadErr := p.WaitLoad(); loadErr != nil {
		slog.Debug("page load did not complete, proceeding with current DOM",
			"url", url, "error", loadErr)
	}

	return &pageDocument{page: page, scriptTimeout: cfg.ScriptTimeout}, nil
}

// teardown stops every hijack router and closes the browser process.
func (s *Session) teardown() {
	s.mu.Lock()
	routers := s.routers
	s.routers = nil
	s.mu.Unlock()

	timeout := s.manager.closeTimeout
	for _, r := range routers {
		if err := within(timeout, r.Stop); err != nil {
			slog.Debug("hijack router stop failed", "error", err)
		}
	}
	if s.proc != nil {
		s.proc.close(timeout)
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes. Only the request's own
// deadline counts as a timeout; a slow page is a navigation failure.
func categorizeError(ctx context.Context, err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
