package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/middleware"
)

type stockRequest struct {
	InStock *bool `json:"inStock" binding:"required"`
}

func CreateProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"

		input, release, err := parseProductRequest(c)
		if err != nil {
			respondProductParseError(c, logger, route, err)
			return
		}
		defer release()

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		product, err := svc.CreateProduct(ctx, middleware.IdentityFrom(c), input)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"

		input, release, err := parseProductRequest(c)
		if err != nil {
			respondProductParseError(c, logger, route, err)
			return
		}
		defer release()

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		product, err := svc.UpdateProduct(ctx, middleware.IdentityFrom(c), c.Param("id"), input)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := svc.DeleteProduct(ctx, middleware.IdentityFrom(c), c.Param("id")); err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

func SetProductStock(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/products/:id/stock"

		var req stockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := svc.SetInStock(ctx, middleware.IdentityFrom(c), c.Param("id"), *req.InStock); err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "inStock": *req.InStock})
	}
}

func respondProductParseError(c *gin.Context, logger *zap.Logger, route string, err error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		respondWithError(c, logger, route, apperr.Validation("%s", err.Error()))
		return
	}
	respondValidationError(c, err)
}
