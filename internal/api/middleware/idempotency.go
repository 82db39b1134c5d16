package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/cache"
)

const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	IdempotencyReplayHeader = "Idempotent-Replayed"
)

// responseRecorder keeps a copy of what the handler writes
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response when a POST/PUT is repeated
// with the same Idempotency-Key and body. The same key with a different body,
// or while the first request is still running, gets 409. Responses with a
// 5xx status are not remembered so the client can retry.
func IdempotencyMiddleware(store cache.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body for idempotency", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to process request"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])
		ctx := c.Request.Context()

		reserved, err := store.Reserve(ctx, idempotencyKey, requestHash, ttl)
		if err != nil {
			logger.Error("Failed to reserve idempotency key", zap.Error(err))
			c.Next()
			return
		}

		if !reserved {
			existing, err := store.Get(ctx, idempotencyKey)
			if err != nil || existing == nil {
				logger.Error("Idempotency key vanished after reservation conflict", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "idempotency key is in use, retry later"})
				return
			}
			respondFromEntry(c, existing, requestHash)
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		// the client may be gone by now; the outcome is still worth keeping
		storeCtx := context.WithoutCancel(ctx)
		defer func() {
			if recovered := recover(); recovered != nil {
				releaseKey(storeCtx, store, idempotencyKey, logger)
				panic(recovered)
			}

			status := recorder.Status()
			if status >= http.StatusInternalServerError {
				releaseKey(storeCtx, store, idempotencyKey, logger)
				return
			}

			entry := cache.IdempotencyEntry{
				RequestHash: requestHash,
				StatusCode:  status,
				ContentType: recorder.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			}
			if err := store.Complete(storeCtx, idempotencyKey, entry, ttl); err != nil {
				logger.Warn("Failed to store idempotent response", zap.Error(err))
			}
		}()

		c.Next()
	}
}

func releaseKey(ctx context.Context, store cache.IdempotencyStore, key string, logger *zap.Logger) {
	if err := store.Release(ctx, key); err != nil {
		logger.Warn("Failed to release idempotency key", zap.Error(err))
	}
}

func respondFromEntry(c *gin.Context, existing *cache.IdempotencyEntry, requestHash string) {
	if existing.RequestHash != requestHash {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "idempotency key conflict: same key used with different payload",
		})
		return
	}
	if existing.Pending() {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "a request with this idempotency key is still being processed",
		})
		return
	}

	contentType := existing.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header(IdempotencyReplayHeader, "true")
	c.Data(existing.StatusCode, contentType, existing.Body)
	c.Abort()
}
