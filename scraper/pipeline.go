package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/metrics"
	"github.com/SatishMiral/chrome-extension-backend/models"
)

// Pipeline runs comparisons: it reads the source product page, searches the
// target site for the product title, and extracts the target's offers.
type Pipeline struct {
	tabs TabSource
	cfg  config.ScraperConfig
}

// NewPipeline creates a Pipeline drawing tabs from tabs.
func NewPipeline(tabs TabSource, cfg config.ScraperConfig) *Pipeline {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	return &Pipeline{tabs: tabs, cfg: cfg}
}

// ComparePrices runs one comparison on a private tab.
//
// Lifecycle:
//
//  1. Acquire tab         – fails with SESSION_UNAVAILABLE when there is no browser
//  2. DEFER: close tab    – runs on every exit path
//  3. Request filter      – installed before the first navigation
//  4. Source page         – navigate, extract title (required), price, image
//  5. Target search       – navigate to the search URL for the title
//  6. Target extraction   – first match per field, or every complete result
func (p *Pipeline) ComparePrices(ctx context.Context, req models.CompareRequest) (res *models.ExtractionResult, err error) {
	req.Defaults()
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = models.CodeOf(err)
		}
		metrics.ComparisonsTotal.WithLabelValues(string(req.Direction), status).Inc()
		metrics.ComparisonDuration.WithLabelValues(string(req.Direction)).Observe(time.Since(start).Seconds())
	}()

	if req.URL == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "url is required", nil)
	}
	if !models.ValidMode(req.Mode) {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}
	source, target, err := Route(req.Direction)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid direction", err)
	}

	// ── 1. Acquire tab ───────────────────────────────────────────────
	tab, err := p.tabs.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	// ── 2. Close on every path ───────────────────────────────────────
	defer func() {
		if closeErr := tab.Close(); closeErr != nil {
			slog.Warn("closing tab failed", "error", closeErr)
		}
	}()

	// ── 3. Request filter ────────────────────────────────────────────
	if err := tab.BlockResources(p.cfg.BlockedResourceTypes); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to install request filter", err)
	}

	// ── 4. Source page ───────────────────────────────────────────────
	srcDoc, err := p.load(ctx, tab, req.URL)
	if err != nil {
		return nil, err
	}

	title, err := Extract(srcDoc, source.Title, source.Origin)
	if err != nil {
		slog.Warn("source title not found", "site", source.Name, "url", req.URL)
		return nil, err
	}

	res = &models.ExtractionResult{
		Website:   source.Name,
		Direction: req.Direction,
		SourceData: models.SourceData{
			Text:  title,
			Price: p.optional(srcDoc, source, source.Price),
		},
	}
	if req.IncludeImage {
		res.SourceData.Image = p.optional(srcDoc, source, source.Image).Ptr()
	}

	// ── 5. Target search ─────────────────────────────────────────────
	searchURL := target.SearchURL(title.String())
	slog.Debug("searching target site", "site", target.Name, "url", searchURL)

	dstDoc, err := p.load(ctx, tab, searchURL)
	if err != nil {
		return nil, err
	}

	// ── 6. Target extraction ─────────────────────────────────────────
	switch req.Mode {
	case models.ModeAll:
		results, err := p.allResults(dstDoc, target, req.IncludeImage)
		if err != nil {
			return nil, err
		}
		res.Results = results
		if len(results) > 0 {
			res.TargetData = results[0]
		} else {
			res.TargetData = emptyTarget(req.IncludeImage)
		}
	default:
		res.TargetData = p.targetFields(dstDoc, target, req.IncludeImage)
	}

	slog.Info("comparison completed",
		"direction", req.Direction,
		"title", title.String(),
		"sourcePrice", res.SourceData.Price.String(),
		"targetPrice", res.TargetData.Price.String(),
		"results", len(res.Results),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return res, nil
}

// load navigates tab to url under the navigation timeout and parses the
// resulting document.
func (p *Pipeline) load(ctx context.Context, tab Tab, url string) (*Document, error) {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := tab.Navigate(navCtx, url); err != nil {
		return nil, categorizeError(err, "navigation to "+url+" failed")
	}

	raw, err := tab.HTML(navCtx)
	if err != nil {
		return nil, categorizeError(err, "failed to read page HTML")
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse page HTML", err)
	}
	return doc, nil
}

// optional extracts a non-required field, counting misses.
func (p *Pipeline) optional(doc *Document, site *Site, field FieldSpec) models.Value {
	v, err := Extract(doc, field, site.Origin)
	if err != nil {
		// Only required fields return errors.
		slog.Warn("unexpected extraction error", "site", site.Name, "field", field.Name, "error", err)
	}
	if !v.Ok() {
		metrics.FieldMissesTotal.WithLabelValues(site.Name, field.Name).Inc()
	}
	return v
}

// targetFields extracts the first match of each target field in doc.
func (p *Pipeline) targetFields(doc *Document, site *Site, withImage bool) models.TargetData {
	t := models.TargetData{
		Price:  p.optional(doc, site, site.ResultPrice),
		Rating: p.optional(doc, site, site.ResultRating),
		Link:   p.optional(doc, site, site.ResultLink),
	}
	if withImage {
		t.Image = p.optional(doc, site, site.ResultImage).Ptr()
	}
	return t
}

// allResults extracts every result card and keeps those with price, rating
// and link all present, in page order.
func (p *Pipeline) allResults(doc *Document, site *Site, withImage bool) ([]models.TargetData, error) {
	cards, err := doc.Scope(site.Result)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "invalid result selector", err)
	}

	results := make([]models.TargetData, 0, len(cards))
	for _, card := range cards {
		t := models.TargetData{
			Price:  cardField(card, site.ResultPrice, site.Origin),
			Rating: cardField(card, site.ResultRating, site.Origin),
			Link:   cardField(card, site.ResultLink, site.Origin),
		}
		if !t.Price.Ok() || !t.Rating.Ok() || !t.Link.Ok() {
			continue
		}
		if withImage {
			t.Image = cardField(card, site.ResultImage, site.Origin).Ptr()
		}
		results = append(results, t)
	}

	slog.Debug("target results extracted", "site", site.Name, "cards", len(cards), "complete", len(results))
	return results, nil
}

// cardField extracts a non-required field inside a result card. Misses
// are expected for ads and placeholders, so they are not counted.
func cardField(doc *Document, field FieldSpec, origin string) models.Value {
	v, _ := Extract(doc, field, origin)
	return v
}

func emptyTarget(withImage bool) models.TargetData {
	t := models.TargetData{
		Price:  models.NotFound(),
		Rating: models.NotFound(),
		Link:   models.NotFound(),
	}
	if withImage {
		t.Image = models.NotFound().Ptr()
	}
	return t
}

// categorizeError maps a navigation error to a ScrapeError code.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, errors.Join(models.ErrNavigationTimeout, err))
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeCanceled, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
