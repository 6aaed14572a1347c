package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/debsscc/Game-Data-Automation/api"
	"github.com/debsscc/Game-Data-Automation/cache"
	"github.com/debsscc/Game-Data-Automation/config"
	"github.com/debsscc/Game-Data-Automation/finder"
	"github.com/debsscc/Game-Data-Automation/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("gamefinder starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxSessions", cfg.Browser.MaxSessions,
		"storeURL", cfg.Extraction.StoreURL,
	)

	// ── 3. Validate locator policies ────────────────────────────────
	policies := finder.DefaultPolicies(cfg.Extraction)
	if err := policies.Validate(); err != nil {
		slog.Error("invalid locator policy", "error", err)
		os.Exit(1)
	}

	// ── 4. Resolve the browser binary once ──────────────────────────
	cfg.Browser.BrowserBin = scraper.DiscoverBin(cfg.Browser.BrowserBin)
	if cfg.Browser.BrowserBin == "" {
		slog.Warn("no browser binary found, sessions will rely on launcher download")
	} else {
		slog.Info("browser binary resolved", "bin", cfg.Browser.BrowserBin)
	}

	// ── 5. Initialise session manager and finder ────────────────────
	sessions := scraper.NewManager(cfg.Browser, cfg.Extraction)
	f := finder.New(sessions, cfg.Extraction, policies)

	// ── 5b. Initialise cache ────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Close()

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(f, sessions, cfg, cc, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight searches release their own browsers; wait up to one request timeout.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Extraction.RequestTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("gamefinder stopped", "sessions", sessions.Stats())
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
