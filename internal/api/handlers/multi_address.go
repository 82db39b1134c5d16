package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/internal/service"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

// AddressService is what the multi-address handlers need from the service layer
type AddressService interface {
	GetOrderSummary(ctx context.Context, orderID int64) (*domain.OrderSummary, error)
	GetAddresses(ctx context.Context, orderID int64) (*domain.AddressesView, error)
	SaveAsMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SaveResult, error)
	UpdateMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.UpdateResult, error)
	DeleteMetadata(ctx context.Context, orderID int64) (*domain.DeleteResult, error)
	SplitIntoOrders(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SplitResult, error)
}

// HandleGetOrder handles GET /api/multi-address/order/:orderId
func HandleGetOrder(cfg *config.Config, svc AddressService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := service.ParseOrderRef(c.Param("orderId"))
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		summary, err := svc.GetOrderSummary(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": summary})
	}
}

// HandleSave handles POST /api/multi-address/save
func HandleSave(cfg *config.Config, svc AddressService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err, cfg.IsProduction(), logger)
			return
		}

		method := req.Method()
		if !method.IsValid() {
			respondError(c, &errors.ErrValidation{
				Message: "save_method must be one of: metafields, split_orders",
				Fields:  map[string]string{"save_method": "Must be one of: metafields split_orders"},
			}, cfg.IsProduction(), logger)
			return
		}

		orderID := req.OrderID.Int64()
		switch method {
		case domain.SaveMethodSplitOrders:
			// a split must not stop half way because the caller went away
			ctx := context.WithoutCancel(c.Request.Context())
			result, err := svc.SplitIntoOrders(ctx, orderID, req.LineItems)
			if err != nil {
				respondError(c, err, cfg.IsProduction(), logger)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "save_method": method, "result": result})
		default:
			result, err := svc.SaveAsMetadata(c.Request.Context(), orderID, req.LineItems)
			if err != nil {
				respondError(c, err, cfg.IsProduction(), logger)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "save_method": method, "result": result})
		}
	}
}

// HandleGetAddresses handles GET /api/multi-address/addresses/:orderId
func HandleGetAddresses(cfg *config.Config, svc AddressService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := service.ParseOrderRef(c.Param("orderId"))
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		view, err := svc.GetAddresses(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
	}
}

// HandleUpdateAddresses handles PUT /api/multi-address/addresses/:orderId
func HandleUpdateAddresses(cfg *config.Config, svc AddressService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := service.ParseOrderRef(c.Param("orderId"))
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		var req service.UpdateAddressesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err, cfg.IsProduction(), logger)
			return
		}

		result, err := svc.UpdateMetadata(c.Request.Context(), orderID, req.LineItems)
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
	}
}

// HandleDeleteAddresses handles DELETE /api/multi-address/addresses/:orderId
func HandleDeleteAddresses(cfg *config.Config, svc AddressService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := service.ParseOrderRef(c.Param("orderId"))
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		result, err := svc.DeleteMetadata(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
	}
}

// HandleValidateAddress handles POST /api/multi-address/validate-address.
// No remote calls are made.
func HandleValidateAddress(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ValidateAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err, cfg.IsProduction(), logger)
			return
		}

		address, err := service.ValidateAddress(req.Target())
		if err != nil {
			respondError(c, err, cfg.IsProduction(), logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "valid": true, "address": address})
	}
}
