package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-pos-mart/internal/auth"
	"go-pos-mart/internal/logger"
)

const (
	// SessionHeader carries the cart session token issued by POST /api/sessions.
	SessionHeader   = "X-Session-Token"
	RequestIDHeader = "X-Request-ID"

	// SessionIDKey is the gin context key holding the validated session id.
	SessionIDKey = "sessionID"
)

// SessionAuth checks the cart session token and exposes its session id
func SessionAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the session header, falling back to "Bearer <token>"
		token := c.GetHeader(SessionHeader)
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": SessionHeader + " header is required"})
			return
		}

		// 2. Validate the signature and expiry
		sessionID, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session token"})
			return
		}

		// 3. Store the session id for the cart handlers
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// RequestID tags each request with an id, reusing the caller's X-Request-ID,
// and puts it on the request context for storage logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
