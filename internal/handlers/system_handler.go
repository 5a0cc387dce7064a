package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemInfo describes this till for the status screen.
type SystemInfo struct {
	AppName     string
	StoreDriver string
	TerminalID  string
}

// GetSystemStatus feeds the till's status screen its terminal ID and the
// storage it runs on.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":           h.system.AppName,
		"terminal_id":   h.system.TerminalID,
		"store_driver":  h.system.StoreDriver,
		"open_sessions": h.sessions.Len(),
		"server_time":   time.Now().UTC(),
	})
}
