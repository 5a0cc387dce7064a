package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/auth"
	"go-pos-mart/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSessionAuth(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	token, _, err := tokens.Issue("session-1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/cart", SessionAuth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SessionIDKey))
	})

	tests := []struct {
		name   string
		header string
		value  string
		status int
		body   string
	}{
		{"session header", SessionHeader, token, http.StatusOK, "session-1"},
		{"bearer", "Authorization", "Bearer " + token, http.StatusOK, "session-1"},
		{"missing", "", "", http.StatusUnauthorized, "header is required"},
		{"invalid", SessionHeader, "nope", http.StatusUnauthorized, "Invalid or expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, c.GetString("request_id"), logger.RequestID(c.Request.Context()))
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	})

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "till-7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "till-7", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "till-7", w.Body.String())
	})
}
