package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-pos-mart/internal/middleware"
	"go-pos-mart/internal/models"
	"go-pos-mart/internal/sales"
	"go-pos-mart/internal/shared"
)

type sessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// cartView is the cart as the till renders it.
type cartView struct {
	Items []sales.CartLine `json:"items"`
	sales.Totals
	ItemCount int `json:"item_count"`
}

func viewOf(cart *sales.Cart) cartView {
	v := cartView{Items: cart.Lines(), Totals: cart.Totals()}
	if v.Items == nil {
		v.Items = []sales.CartLine{}
	}
	for _, l := range v.Items {
		v.ItemCount += l.Quantity
	}
	return v
}

// --- POST: Open a till session with an empty cart ---
func (h *Handler) OpenSession(c *gin.Context) {
	id := h.sessions.Open()
	token, expires, err := h.tokens.Issue(id)
	if err != nil {
		h.sessions.Close(id)
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Token: token, SessionID: id, ExpiresAt: expires})
}

func (h *Handler) CloseSession(c *gin.Context) {
	h.sessions.Close(c.GetString(middleware.SessionIDKey))
	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}

// withCart runs fn on the caller's cart and answers with the cart view.
// A soft error from fn still answers 200, carrying it as a warning.
func (h *Handler) withCart(c *gin.Context, status int, fn func(*sales.Cart) error) {
	var view cartView
	var softErr error
	err := h.sessions.WithCart(c.GetString(middleware.SessionIDKey), func(cart *sales.Cart) error {
		err := fn(cart)
		if shared.IsSoft(err) {
			softErr, err = err, nil
		}
		view = viewOf(cart)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if softErr != nil {
		c.JSON(status, gin.H{"cart": view, "warning": softErr.Error(), "warning_code": shared.Code(softErr)})
		return
	}
	c.JSON(status, gin.H{"cart": view})
}

func (h *Handler) GetCart(c *gin.Context) {
	h.withCart(c, http.StatusOK, func(*sales.Cart) error { return nil })
}

func (h *Handler) ClearCart(c *gin.Context) {
	h.withCart(c, http.StatusOK, func(cart *sales.Cart) error {
		cart.Clear()
		return nil
	})
}

type addItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// --- POST: Add a product to the cart (quantity defaults to 1) ---
func (h *Handler) AddCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	h.withCart(c, http.StatusOK, func(cart *sales.Cart) error {
		return h.engine.AddToCart(c.Request.Context(), cart, req.ProductID, req.Quantity)
	})
}

type updateItemRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// --- PATCH: Step a line's quantity up or down ---
func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := parseID(c, "productId", "Product")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta is required")
		return
	}
	h.withCart(c, http.StatusOK, func(cart *sales.Cart) error {
		return h.engine.UpdateCartQuantity(cart, id, *req.Delta)
	})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := parseID(c, "productId", "Product")
	if !ok {
		return
	}
	h.withCart(c, http.StatusOK, func(cart *sales.Cart) error {
		cart.Remove(id)
		return nil
	})
}

// --- POST: Commit the cart as one sale ---
func (h *Handler) Checkout(c *gin.Context) {
	var req sales.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var sale *models.Sale
	err := h.sessions.WithCart(c.GetString(middleware.SessionIDKey), func(cart *sales.Cart) error {
		var err error
		sale, err = h.engine.Checkout(c.Request.Context(), cart, req)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale successful!",
		"sale":    sale,
		"receipt": h.receipts.Text(sale),
	})
}
