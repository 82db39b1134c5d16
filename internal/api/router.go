package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/api/handlers"
	"github.com/kushalyadavv/multi-address-backend/internal/api/middleware"
	"github.com/kushalyadavv/multi-address-backend/internal/cache"
	"github.com/kushalyadavv/multi-address-backend/internal/config"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc handlers.AddressService, store cache.IdempotencyStore, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(customRecovery(cfg, logger))
	router.Use(loggingMiddleware(logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Multi-Address Shipping API",
			"endpoints": []string{
				"GET /health",
				"GET /api/multi-address/order/:orderId",
				"POST /api/multi-address/save",
				"GET /api/multi-address/addresses/:orderId",
				"PUT /api/multi-address/addresses/:orderId",
				"DELETE /api/multi-address/addresses/:orderId",
				"POST /api/multi-address/validate-address",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	multiAddress := router.Group("/api/multi-address")
	multiAddress.Use(middleware.AuthMiddleware(cfg.API, logger))
	{
		multiAddress.GET("/order/:orderId", handlers.HandleGetOrder(cfg, svc, logger))
		multiAddress.POST("/save",
			middleware.IdempotencyMiddleware(store, cfg.Idempotency.TTL, logger),
			handlers.HandleSave(cfg, svc, logger),
		)
		multiAddress.GET("/addresses/:orderId", handlers.HandleGetAddresses(cfg, svc, logger))
		multiAddress.PUT("/addresses/:orderId", handlers.HandleUpdateAddresses(cfg, svc, logger))
		multiAddress.DELETE("/addresses/:orderId", handlers.HandleDeleteAddresses(cfg, svc, logger))
		multiAddress.POST("/validate-address", handlers.HandleValidateAddress(cfg, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		body := gin.H{"success": false, "error": "internal server error"}
		if !cfg.IsProduction() {
			body["details"] = fmt.Sprintf("%v", recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

// loggingMiddleware logs HTTP requests, at warn for 4xx and error for 5xx
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}
