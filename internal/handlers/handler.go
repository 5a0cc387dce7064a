// Package handlers is the gin glue between HTTP and the catalog and sale
// engine.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-mart/internal/auth"
	"go-pos-mart/internal/catalog"
	"go-pos-mart/internal/middleware"
	"go-pos-mart/internal/receipt"
	"go-pos-mart/internal/sales"
	"go-pos-mart/internal/shared"
)

// Handler holds everything the routes need.
type Handler struct {
	catalog  *catalog.Service
	engine   *sales.Engine
	sessions *sales.Sessions
	tokens   *auth.TokenIssuer
	receipts *receipt.Renderer
	log      *zap.Logger
	system   SystemInfo
}

// Deps wires a Handler.
type Deps struct {
	Catalog  *catalog.Service
	Engine   *sales.Engine
	Sessions *sales.Sessions
	Tokens   *auth.TokenIssuer
	Receipts *receipt.Renderer
	Log      *zap.Logger
	System   SystemInfo
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		catalog:  d.Catalog,
		engine:   d.Engine,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		receipts: d.Receipts,
		log:      log.Named("http"),
		system:   d.System,
	}
}

// Register mounts every /api route on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/system/status", h.GetSystemStatus)

	// Till sessions and their carts
	api.POST("/sessions", h.OpenSession)
	session := api.Group("", middleware.SessionAuth(h.tokens))
	{
		session.DELETE("/sessions", h.CloseSession)
		session.GET("/cart", h.GetCart)
		session.DELETE("/cart", h.ClearCart)
		session.POST("/cart/items", h.AddCartItem)
		session.PATCH("/cart/items/:productId", h.UpdateCartItem)
		session.DELETE("/cart/items/:productId", h.RemoveCartItem)
		session.POST("/cart/checkout", h.Checkout)
	}

	// Catalog
	api.GET("/products", h.GetProducts)
	api.POST("/products", h.AddProduct)
	api.GET("/products/code/:code", h.GetProductByCode)
	api.GET("/products/:id", h.GetProduct)
	api.PUT("/products/:id", h.UpdateProduct)
	api.DELETE("/products/:id", h.DeleteProduct)
	api.PATCH("/products/:id/stock", h.AdjustStock)

	api.GET("/categories", h.GetCategories)
	api.POST("/categories", h.AddCategory)
	api.GET("/categories/:id", h.GetCategory)
	api.PUT("/categories/:id", h.UpdateCategory)
	api.DELETE("/categories/:id", h.DeleteCategory)

	api.GET("/customers", h.GetCustomers)
	api.POST("/customers", h.AddCustomer)
	api.GET("/customers/:id", h.GetCustomer)
	api.PUT("/customers/:id", h.UpdateCustomer)
	api.DELETE("/customers/:id", h.DeleteCustomer)

	// Sales and reports
	api.GET("/sales", h.GetSales)
	api.GET("/sales/:id", h.GetSale)
	api.GET("/sales/:id/receipt", h.GetReceipt)
	api.DELETE("/sales/:id", h.DeleteSale)
	api.GET("/stats", h.GetStats)
	api.GET("/reports/sales", h.GetSalesReport)
}

// statusOf maps a domain error code onto an HTTP status.
func statusOf(code string) int {
	switch code {
	case shared.ErrNotFound.Code:
		return http.StatusNotFound
	case shared.ErrInvalidInput.Code, shared.ErrEmptyCart.Code, shared.ErrMissingCustomerInfo.Code:
		return http.StatusBadRequest
	case shared.ErrDuplicateCode.Code, shared.ErrDuplicateName.Code, shared.ErrDuplicateContact.Code,
		shared.ErrCommitFailed.Code, shared.ErrInsufficientStock.Code, shared.ErrConcurrencyConflict.Code,
		shared.ErrOutOfStock.Code, shared.ErrStockExceeded.Code:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ..., "code": ...}. Errors that are not
// domain errors are logged and hidden behind a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		h.log.Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	msg := shared.Message(err)
	if msg != err.Error() {
		h.log.Warn("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.String("code", de.Code),
			zap.Error(err))
	}
	c.JSON(statusOf(de.Code), gin.H{"error": msg, "code": de.Code})
}

// parseID reads a positive numeric path parameter, answering 400 when it is
// not one.
func parseID(c *gin.Context, param, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID", "code": shared.ErrInvalidInput.Code})
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": shared.ErrInvalidInput.Code})
}
