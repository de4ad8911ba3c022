package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SatishMiral/chrome-extension-backend/models"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// SessionReporter reports browser session state. *session.Manager
// implements it.
type SessionReporter interface {
	IsAlive() bool
	Stats() models.SessionStats
}

// Root returns a handler for GET /.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatusResponse{Success: true, Message: "Server is running"})
	}
}

// Health returns a handler for GET /health.
//
// Status is "unavailable" while there is no live browser; the endpoint still
// answers 200 so the process is not restarted during a relaunch.
func Health(sr SessionReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if !sr.IsAlive() {
			status = "unavailable"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Session: sr.Stats(),
			Version: Version,
		})
	}
}
