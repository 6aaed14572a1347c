package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/debsscc/Game-Data-Automation/config"
	"github.com/debsscc/Game-Data-Automation/dom"
	"github.com/debsscc/Game-Data-Automation/models"
)

// process is one launched browser and the hooks that stop it.
type process struct {
	browser *rod.Browser

	// closeBrowser asks the browser to exit over the protocol.
	closeBrowser func() error
	// kill stops the browser process and removes its profile directory.
	kill func()
}

// errCloseTimeout is returned when the browser does not answer a close.
var errCloseTimeout = errors.New("browser did not close in time")

// defaultCloseTimeout bounds teardown when no script timeout is configured.
const defaultCloseTimeout = 5 * time.Second

// close shuts the browser down, waiting at most timeout for it to answer,
// then always kills the process.
func (p *process) close(timeout time.Duration) {
	if p.closeBrowser != nil {
		if err := within(timeout, p.closeBrowser); err != nil {
			slog.Debug("browser close failed, killing process", "error", err)
		}
	}
	if p.kill != nil {
		p.kill()
	}
}

// within runs fn and stops waiting for it after timeout. fn keeps running in
// the background; killing the browser makes a stuck call return.
func within(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errCloseTimeout
	}
}

// Manager hands out browser sessions. Each session is a separate browser
// process owned by exactly one request. It is safe for concurrent use.
type Manager struct {
	browserCfg config.BrowserConfig
	extractCfg config.ExtractionConfig

	// slots bounds how many sessions may be live at once.
	slots chan struct{}

	// launch starts a browser from bin, or lets the launcher find one when
	// bin is empty.
	launch func(bin string) (*process, error)

	// closeTimeout bounds each step of a session teardown.
	closeTimeout time.Duration

	active         atomic.Int32
	acquired       atomic.Int64
	released       atomic.Int64
	launchFailures atomic.Int64
}

// NewManager creates a Manager. No browser is started until Acquire.
func NewManager(browserCfg config.BrowserConfig, extractCfg config.ExtractionConfig) *Manager {
	maxSessions := browserCfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1
	}
	m := &Manager{
		browserCfg: browserCfg,
		extractCfg: extractCfg,
		slots:      make(chan struct{}, maxSessions),
	}
	m.closeTimeout = extractCfg.ScriptTimeout
	if m.closeTimeout <= 0 {
		m.closeTimeout = defaultCloseTimeout
	}
	m.launch = func(bin string) (*process, error) {
		return launchBrowser(m.browserCfg, bin)
	}
	return m
}

// Acquire waits for a free slot and starts a new session. The caller must
// pass the session to Release exactly once.
func (m *Manager) Acquire(ctx context.Context) (dom.Session, error) {
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, models.NewScrapeError(
			models.ErrCodeSessionUnavailable,
			"no free browser session",
			ctx.Err(),
		)
	}

	s := &Session{manager: m}
	s.state.Store(int32(Initializing))

	proc, err := m.start()
	if err != nil {
		<-m.slots
		m.launchFailures.Add(1)
		return nil, err
	}

	s.proc = proc
	s.state.Store(int32(Active))
	m.active.Add(1)
	m.acquired.Add(1)
	return s, nil
}

// start runs the launch policy: the explicit binary first, then whatever
// the launcher can find or download.
func (m *Manager) start() (*process, error) {
	var primaryErr error
	if bin := m.browserCfg.BrowserBin; bin != "" {
		proc, err := m.launch(bin)
		if err == nil {
			return proc, nil
		}
		primaryErr = err
		slog.Warn("explicit browser launch failed, trying implicit discovery",
			"bin", bin, "error", err)
	}

	proc, err := m.launch("")
	if err == nil {
		return proc, nil
	}
	return nil, models.NewScrapeError(
		models.ErrCodeSessionUnavailable,
		"failed to launch browser",
		errors.Join(primaryErr, err),
	)
}

// Release tears the session down and frees its slot. It never panics, a
// second release of the same session does nothing, and each teardown step
// waits at most the script timeout for the browser.
func (m *Manager) Release(ds dom.Session) {
	s, ok := ds.(*Session)
	if !ok || s == nil || s.manager != m {
		slog.Warn("release of a session this manager did not create", "session", ds)
		return
	}
	if !s.state.CompareAndSwap(int32(Active), int32(Closed)) {
		slog.Warn("session released twice")
		return
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("session teardown panicked", "panic", p)
		}
		m.active.Add(-1)
		m.released.Add(1)
		<-m.slots
	}()

	s.teardown()
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    cap(m.slots),
		ActiveSessions: int(m.active.Load()),
		Acquired:       m.acquired.Load(),
		Released:       m.released.Load(),
		LaunchFailures: m.launchFailures.Load(),
	}
}

// DiscoverBin resolves the explicit browser binary once at start-up:
// the configured path when set, else the first browser found on the system.
// An empty result leaves discovery to the launcher.
func DiscoverBin(configured string) string {
	if configured != "" {
		return configured
	}
	if bin, ok := launcher.LookPath(); ok {
		return bin
	}
	return ""
}

// launchBrowser starts a hardened headless browser and connects to it.
func launchBrowser(cfg config.BrowserConfig, bin string) (*process, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if bin != "" {
		l = l.Bin(bin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Hardened profile ─────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("blink-settings"), "imagesEnabled=false")
	l.Set(flags.Flag("disable-notifications"))
	l.Set(flags.Flag("deny-permission-prompts"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}
	slog.Debug("browser launched", "controlURL", controlURL, "bin", bin)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	return &process{
		browser:      browser,
		closeBrowser: browser.Close,
		kill: func() {
			l.Kill()
			l.Cleanup()
		},
	}, nil
}
