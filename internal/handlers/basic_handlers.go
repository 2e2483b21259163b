package handlers

import (
	"net/http"

	"sync-backend/internal/db"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler liveness probe
// GET /health
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "sync-backend",
		"api":     "healthy",
	})
}

// ReadyCheckHandler readiness probe including database connectivity
// GET /ready
func ReadyCheckHandler(c *gin.Context) {
	if err := db.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "healthy",
	})
}
