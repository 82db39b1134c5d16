package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kushalyadavv/multi-address-backend/internal/config"
)

const APIKeyHeader = "X-API-Key"

// AuthMiddleware checks the X-API-Key header against API_KEY_HASH (bcrypt)
// or API_KEY. With neither configured every request passes.
func AuthMiddleware(cfg config.APIConfig, logger *zap.Logger) gin.HandlerFunc {
	if cfg.KeyHash == "" && cfg.Key == "" {
		logger.Warn("No API key configured, multi-address routes are unauthenticated")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader(APIKeyHeader))
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing API key"})
			return
		}

		if !validAPIKey(cfg, apiKey) {
			logger.Warn("Rejected request with invalid API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid API key"})
			return
		}

		c.Next()
	}
}

func validAPIKey(cfg config.APIConfig, apiKey string) bool {
	if cfg.KeyHash != "" {
		return VerifyAPIKey(apiKey, cfg.KeyHash)
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.Key)) == 1
}

// HashAPIKey hashes an API key using bcrypt, for API_KEY_HASH
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey))
	return err == nil
}
