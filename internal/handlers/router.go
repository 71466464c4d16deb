package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/orders"
)

type Deps struct {
	Catalog   *catalog.Service
	Orders    *orders.Service
	Accounts  *auth.Accounts
	Tokens    middleware.TokenParser
	Ping      Pinger
	UploadDir string
	Logger    *zap.Logger
}

// NewRouter wires every route. Uploaded images are served from UploadDir/uploads.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger.Named("http")

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(logging.GinLogger(logger), logging.GinRecovery(logger))
	r.Use(middleware.Identify(d.Tokens, logger))

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir+"/uploads")
	}

	r.GET("/healthz", Health(d.Ping, logger))

	r.POST("/auth/register", Register(d.Accounts, logger))
	r.POST("/auth/login", Login(d.Accounts, logger))
	r.GET("/auth/me", middleware.RequireUser(), GetMe(d.Accounts, logger))

	r.GET("/products", GetProducts(d.Catalog, logger))
	r.GET("/products/:id", GetProduct(d.Catalog, logger))
	r.GET("/categories", GetCategories(d.Catalog, logger))

	r.POST("/orders", middleware.RequireUser(), CreateOrder(d.Orders, logger))
	r.GET("/orders/me", middleware.RequireUser(), GetMyOrders(d.Orders, logger))

	admin := r.Group("/admin/api")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/products", CreateProduct(d.Catalog, logger))
		admin.PUT("/products/:id", UpdateProduct(d.Catalog, logger))
		admin.DELETE("/products/:id", DeleteProduct(d.Catalog, logger))
		admin.PATCH("/products/:id/stock", SetProductStock(d.Catalog, logger))

		admin.GET("/orders", GetOrders(d.Orders, logger))
		admin.GET("/orders/:id", GetOrder(d.Orders, logger))
		admin.PATCH("/orders/:id/status", UpdateOrderStatus(d.Orders, logger))
	}

	return r
}
