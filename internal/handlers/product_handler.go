package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-pos-mart/internal/catalog"
	"go-pos-mart/internal/models"
	"go-pos-mart/internal/store"
)

// --- GET: List products, optionally ?category_id= and ?search= ---
func (h *Handler) GetProducts(c *gin.Context) {
	var f store.ProductFilter

	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid category_id")
			return
		}
		cid := uint(id)
		f.CategoryID = &cid
	}
	f.Search = c.Query("search")

	products, err := h.catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "Product")
	if !ok {
		return
	}
	p, err := h.catalog.FindProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- GET: Scanner lookup by product code ---
func (h *Handler) GetProductByCode(c *gin.Context) {
	p, err := h.catalog.FindProductByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in catalog.ProductInput

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Validate and save
	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// --- PUT: Replace the editable fields of a product ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	id, ok := parseID(c, "id", "Product")
	if !ok {
		return
	}

	// 2. Parse JSON Input
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 3. Save updates
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

// --- DELETE: Remove a product. Past sales keep their snapshot of it. ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "Product")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type stockRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// --- PATCH: Receive or write off stock by a signed delta ---
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id", "Product")
	if !ok {
		return
	}
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta is required")
		return
	}
	p, err := h.catalog.AdjustStock(c.Request.Context(), id, *req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- Categories ---

func (h *Handler) GetCategories(c *gin.Context) {
	list, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "Category")
	if !ok {
		return
	}
	cat, err := h.catalog.FindCategory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) AddCategory(c *gin.Context) {
	var in catalog.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "Category")
	if !ok {
		return
	}
	var in catalog.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cat, err := h.catalog.UpdateCategory(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// DeleteCategory leaves its products in place; they list as Uncategorized.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "Category")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// --- Customers ---

// GetCustomers lists everyone, or matches ?search= against name and contact.
func (h *Handler) GetCustomers(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []models.Customer
		err  error
	)
	if q := c.Query("search"); q != "" {
		list, err = h.catalog.SearchCustomers(ctx, q)
	} else {
		list, err = h.catalog.ListCustomers(ctx)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "Customer")
	if !ok {
		return
	}
	cust, err := h.catalog.FindCustomer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) AddCustomer(c *gin.Context) {
	var in catalog.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust, err := h.catalog.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "Customer")
	if !ok {
		return
	}
	var in catalog.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust, err := h.catalog.UpdateCustomer(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "Customer")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
