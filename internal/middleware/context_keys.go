package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ownerIDKey = contextKey("ownerID")
	userIDKey  = contextKey("userID")
)

// OwnerContext extracts the owner and acting-user identifiers from request
// headers. Authentication itself lives in front of this service; the engine
// only needs the identifiers for scoping and audit fields.
func OwnerContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetHeader("X-Owner-ID")
		if ownerID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing X-Owner-ID header"})
			return
		}
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = "system"
		}
		c.Set(string(ownerIDKey), ownerID)
		c.Set(string(userIDKey), userID)
		c.Next()
	}
}

// GetOwnerIDFromContext retrieves the owner ID set by OwnerContext.
func GetOwnerIDFromContext(c *gin.Context) (string, bool) {
	val, exists := c.Get(string(ownerIDKey))
	if !exists {
		return "", false
	}
	ownerID, ok := val.(string)
	return ownerID, ok
}

// GetUserIDFromContext retrieves the acting-user ID set by OwnerContext.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	val, exists := c.Get(string(userIDKey))
	if !exists {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok
}
