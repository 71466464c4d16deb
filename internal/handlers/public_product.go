package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
)

// GetProducts lists the catalog: ?q= searches, ?category= filters ("all" disables
// the filter) and ?sort= orders. Out-of-stock products are included.
func GetProducts(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"

		query := catalog.Query{
			Text:     c.Query("q"),
			Category: c.Query("category"),
			Sort:     c.Query("sort"),
		}
		if query.Text == "" {
			query.Text = c.Query("search")
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		products, err := svc.ListProducts(ctx, query)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}

		logger.Debug("products listed", zap.String("route", route), zap.Int("count", len(products)))
		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		product, err := svc.GetProduct(ctx, c.Param("id"))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
