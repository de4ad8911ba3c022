package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SatishMiral/chrome-extension-backend/api"
	"github.com/SatishMiral/chrome-extension-backend/cache"
	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/scraper"
	"github.com/SatishMiral/chrome-extension-backend/session"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. The browser is launched in the background; until it is
live the compare routes answer 503. Configuration comes from PORT and
PRICECOMPARE_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logFile, err := initLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	defer logFile.Close()

	slog.Info("pricecompare starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"launchAttempts", cfg.Session.MaxLaunchAttempts,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Start the browser session (background launch + watchdog) ─
	manager := session.NewManager(session.NewRodLauncher(cfg.Browser), cfg.Session, cfg.Browser.MaxPages)
	manager.Start(ctx)
	defer manager.Close()

	// ── 4. Pipeline and cache ───────────────────────────────────────
	pipeline := scraper.NewPipeline(scraper.BrowserTabs(manager, cfg.Scraper), cfg.Scraper)
	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(pipeline, manager, cfg, cc, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("HTTP server error", "error", err)
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// In-flight comparisons may need both navigations to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Scraper.NavigationTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// manager.Close runs via defer and kills Chrome.
	slog.Info("pricecompare stopped")
	return nil
}
