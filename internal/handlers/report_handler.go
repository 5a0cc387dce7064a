package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// defaultReportDays is the window used when ?from= is left out.
const defaultReportDays = 30

// --- GET: Sales newest first, ?limit= caps the list ---
func (h *Handler) GetSales(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "Invalid limit")
			return
		}
		limit = n
	}
	list, err := h.engine.ListSales(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSale(c *gin.Context) {
	id, ok := parseID(c, "id", "Sale")
	if !ok {
		return
	}
	sale, err := h.engine.FindSale(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// --- GET: Printable receipt for a sale ---
func (h *Handler) GetReceipt(c *gin.Context) {
	id, ok := parseID(c, "id", "Sale")
	if !ok {
		return
	}
	sale, err := h.engine.FindSale(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.String(http.StatusOK, h.receipts.Text(sale))
}

// --- DELETE: Reverse a sale and put its stock back ---
func (h *Handler) DeleteSale(c *gin.Context) {
	id, ok := parseID(c, "id", "Sale")
	if !ok {
		return
	}
	if err := h.engine.DeleteSale(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted and stock restored"})
}

// --- GET: /api/stats, the dashboard overview ---
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- GET: /api/reports/sales?from=&to= ---
// Dates are 2006-01-02 (whole days, UTC) or RFC3339. to defaults to now,
// from to thirty days before to.
func (h *Handler) GetSalesReport(c *gin.Context) {
	// 1. Resolve the window
	to := time.Now().UTC()
	if raw := c.Query("to"); raw != "" {
		t, err := parseBound(raw, true)
		if err != nil {
			badRequest(c, "Invalid to date")
			return
		}
		to = t
	}
	from := to.AddDate(0, 0, -defaultReportDays)
	if raw := c.Query("from"); raw != "" {
		t, err := parseBound(raw, false)
		if err != nil {
			badRequest(c, "Invalid from date")
			return
		}
		from = t
	}

	// 2. Aggregate by payment method
	report, err := h.engine.SalesReport(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// parseBound reads a report bound. A bare date as the upper bound covers the
// whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if upper {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
