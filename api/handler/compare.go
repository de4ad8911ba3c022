package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SatishMiral/chrome-extension-backend/api/middleware"
	"github.com/SatishMiral/chrome-extension-backend/cache"
	"github.com/SatishMiral/chrome-extension-backend/models"
)

const (
	msgSessionUnavailable = "Browser is not available. Try again later."
	msgFetchFailed        = "Failed to fetch product details."
)

// Comparer runs one comparison. *scraper.Pipeline implements it.
type Comparer interface {
	ComparePrices(ctx context.Context, req models.CompareRequest) (*models.ExtractionResult, error)
}

// CompareRoute describes one compare endpoint.
type CompareRoute struct {
	// SiteLabel names the source site in the missing-url message.
	SiteLabel string
	Direction models.Direction

	// Mode is used when the request has no mode parameter.
	Mode models.Mode

	// Flatten responds with the results list (ResultsResponse) and always
	// runs in all-results mode.
	Flatten bool
}

// Compare returns a handler for one of the GET compare routes.
//
// Query parameters:
//
//	url      source product page (required)
//	mode     "single" or "all"
//	image    "true" to extract product images
//	max_age  accept a cached result younger than this many milliseconds
func Compare(cmp Comparer, cc *cache.Cache, route CompareRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		req := models.CompareRequest{
			Direction: route.Direction,
			URL:       c.Query("url"),
			Mode:      route.Mode,
		}
		if req.URL == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: route.SiteLabel + " URL is required."})
			return
		}
		if m := c.Query("mode"); m != "" && !route.Flatten {
			req.Mode = models.Mode(m)
		}
		if route.Flatten {
			req.Mode = models.ModeAll
		}
		if !models.ValidMode(req.Mode) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: `mode must be "single" or "all".`})
			return
		}
		req.IncludeImage, _ = strconv.ParseBool(c.Query("image"))
		maxAge, _ := strconv.Atoi(c.Query("max_age"))

		// ── 2. Cache lookup ─────────────────────────────────────────
		var key string
		if cc != nil && maxAge > 0 {
			key = cache.Key(req.Direction, req.URL, req.Mode, req.IncludeImage)
			if cached, hit := cc.Get(key, maxAge); hit {
				c.Header("X-Cache", "hit")
				respond(c, cached, route.Flatten)
				return
			}
		}

		// ── 3. Compare ──────────────────────────────────────────────
		res, err := cmp.ComparePrices(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, req)
			return
		}

		// ── 4. Cache store ──────────────────────────────────────────
		if key != "" {
			cc.Set(key, res)
			c.Header("X-Cache", "miss")
		}

		respond(c, res, route.Flatten)
	}
}

func respond(c *gin.Context, res *models.ExtractionResult, flatten bool) {
	if flatten {
		c.JSON(http.StatusOK, models.NewResultsResponse(res))
		return
	}
	c.JSON(http.StatusOK, models.CompareResponse{Success: true, ExtractionResult: res})
}

// respondError logs the failure and writes the public error body. Only a
// missing browser session is distinguished for the caller.
func respondError(c *gin.Context, err error, req models.CompareRequest) {
	code := models.CodeOf(err)
	attrs := []any{
		"code", code,
		"direction", req.Direction,
		"url", req.URL,
		"request_id", middleware.GetRequestID(c),
		"error", err,
	}

	switch {
	case errors.Is(err, models.ErrSessionUnavailable):
		slog.Warn("comparison rejected: no browser session", attrs...)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: msgSessionUnavailable})
	default:
		slog.Error("comparison failed", attrs...)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgFetchFailed})
	}
}
