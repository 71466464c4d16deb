package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/orders"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// createOrderRequest mirrors what the cart sends. Total is the client's figure and
// is never used for pricing.
type createOrderRequest struct {
	Items []createOrderItemRequest `json:"items"`
	Total decimal.Decimal          `json:"total"`
}

func CreateOrder(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		lines := make([]orders.LineRequest, len(req.Items))
		for i, item := range req.Items {
			lines[i] = orders.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := svc.CreateOrder(ctx, middleware.IdentityFrom(c), lines, req.Total)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId": order.ID,
			"total":   order.Total,
			"message": "order created",
		})
	}
}

func GetMyOrders(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/me"

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		list, err := svc.ListMyOrders(ctx, middleware.IdentityFrom(c))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
