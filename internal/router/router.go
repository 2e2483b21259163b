package router

import (
	"net/http"
	"os"
	"strings"

	"sync-backend/internal/app"
	"sync-backend/internal/config"
	"sync-backend/internal/handlers"
	"sync-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware CORS middleware
// Priority: environment variable > yaml config > default (*)
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		var allowedOrigins []string
		allowCredentials := true
		maxAge := "3600"

		if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
			for _, o := range strings.Split(envOrigins, ",") {
				if trimmed := strings.TrimSpace(o); trimmed != "" {
					allowedOrigins = append(allowedOrigins, trimmed)
				}
			}
		} else if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
		} else {
			allowedOrigins = []string{"*"}
		}

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					if allowCredentials {
						c.Header("Access-Control-Allow-Credentials", "true")
					}
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter wires all routes against the service container
func SetupRouter(container *app.ServiceContainer, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// Probes and metrics
	r.GET("/health", handlers.HealthCheckHandler)
	r.GET("/ready", handlers.ReadyCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	syncHandler := handlers.NewSyncHandler(container.SyncService, logger)
	transferHandler := handlers.NewTransferHandler(container.TransferRepo, container.WalletRepo, container.WebSocketPushService, logger)

	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	localhostOnly := middleware.NewLocalhostOnly(logger, allowedIPs)

	api := r.Group("/api")
	{
		// Sync triggers are operational endpoints, restricted
		api.POST("/sync", localhostOnly.Restrict(), syncHandler.TriggerSync)
		api.GET("/sync/status/:accountId", syncHandler.GetSyncStatus)

		api.GET("/accounts/:accountId/transfers", transferHandler.ListAccountTransfers)
		api.GET("/accounts/:accountId/ws", transferHandler.SubscribeTransferPush)
	}

	return r
}
