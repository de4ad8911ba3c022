package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/models"
	"github.com/SatishMiral/chrome-extension-backend/scraper"
	"github.com/SatishMiral/chrome-extension-backend/session"
)

var (
	compareURL       string
	compareDirection string
	compareMode      string
	compareImage     bool
)

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run one comparison and print the result as JSON",
		Long: `Launch a browser, run a single comparison and print the extraction result.

The direction defaults from the URL host: flipkart.com pages are compared
against Amazon, amazon.in pages against Flipkart.`,
		Args: cobra.NoArgs,
		RunE: runCompare,
	}

	cmd.Flags().StringVarP(&compareURL, "url", "u", "", "source product page URL (required)")
	cmd.Flags().StringVarP(&compareDirection, "direction", "d", "", "flipkart-to-amazon or amazon-to-flipkart")
	cmd.Flags().StringVarP(&compareMode, "mode", "m", string(models.ModeSingle), "single or all")
	cmd.Flags().BoolVar(&compareImage, "image", false, "also extract product images")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.Log.File = ""
	cfg.Log.Format = "text"
	// stdout carries the JSON result.
	if _, err := initLogger(cfg.Log, os.Stderr); err != nil {
		return err
	}

	direction := models.Direction(compareDirection)
	if direction == "" {
		direction = scraper.DirectionFor(compareURL)
	}
	if !models.ValidDirection(direction) {
		return fmt.Errorf("cannot infer direction for %q; pass --direction", compareURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := session.NewManager(session.NewRodLauncher(cfg.Browser), cfg.Session, 1)
	if err := manager.EnsureSession(ctx); err != nil {
		return err
	}
	defer manager.Close()

	pipeline := scraper.NewPipeline(scraper.BrowserTabs(manager, cfg.Scraper), cfg.Scraper)
	res, err := pipeline.ComparePrices(ctx, models.CompareRequest{
		Direction:    direction,
		URL:          compareURL,
		Mode:         models.Mode(compareMode),
		IncludeImage: compareImage,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
