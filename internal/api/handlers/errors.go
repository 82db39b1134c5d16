package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/api/middleware"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

// respondError maps service errors to status codes. Internal details are
// only included outside production; validation fields always are.
func respondError(c *gin.Context, err error, production bool, logger *zap.Logger) {
	var (
		validation   *errors.ErrValidation
		notFound     *errors.ErrNotFound
		conflict     *errors.ErrConflict
		unauthorized *errors.ErrUnauthorized
		upstream     *errors.ErrUpstream
	)

	switch {
	case stderrors.As(err, &validation):
		body := gin.H{"success": false, "error": validation.Error()}
		if len(validation.Fields) > 0 {
			body["details"] = validation.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": notFound.Error()})
	case stderrors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": conflict.Error()})
	case stderrors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": unauthorized.Error()})
	case stderrors.As(err, &upstream):
		logger.Error("Shopify request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Int("upstream_status", upstream.StatusCode),
			zap.Error(err),
		)
		body := gin.H{"success": false, "error": "Shopify request failed"}
		if !production {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusBadGateway, body)
	default:
		logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		body := gin.H{"success": false, "error": "internal server error"}
		if !production {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

// respondBindError answers a body that could not be decoded
func respondBindError(c *gin.Context, err error, production bool, logger *zap.Logger) {
	var validation *errors.ErrValidation
	if stderrors.As(err, &validation) {
		respondError(c, err, production, logger)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "invalid request body",
		"details": err.Error(),
	})
}
