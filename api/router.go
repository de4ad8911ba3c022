package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SatishMiral/chrome-extension-backend/api/handler"
	"github.com/SatishMiral/chrome-extension-backend/api/middleware"
	"github.com/SatishMiral/chrome-extension-backend/cache"
	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/models"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger → CORS → Metrics
//	Compare: Auth (if enabled)
//
// Root, health and metrics are outside auth so monitoring probes always work.
// cc may be nil to disable caching.
func NewRouter(cmp handler.Comparer, sr handler.SessionReporter, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/", handler.Root())
	r.GET("/health", handler.Health(sr, startTime))

	compare := r.Group("")
	if cfg.Auth.Enabled {
		compare.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	compare.GET("/compare-product", handler.Compare(cmp, cc, handler.CompareRoute{
		SiteLabel: "Flipkart",
		Direction: models.FlipkartToAmazon,
		Mode:      models.ModeAll,
		Flatten:   true,
	}))
	compare.GET("/compare-flipkart-product", handler.Compare(cmp, cc, handler.CompareRoute{
		SiteLabel: "Flipkart",
		Direction: models.FlipkartToAmazon,
		Mode:      models.ModeSingle,
	}))
	compare.GET("/compare-amazon-product", handler.Compare(cmp, cc, handler.CompareRoute{
		SiteLabel: "Amazon",
		Direction: models.AmazonToFlipkart,
		Mode:      models.ModeSingle,
	}))

	return r
}
