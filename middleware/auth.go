package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tetra/auth"
)

// RequireAuth rejects requests that do not carry a valid Bearer token
// and stores the caller's user id in the gin context as "userId".
func RequireAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authorization header must be: Bearer <token>"})
			c.Abort()
			return
		}

		userID, err := issuer.Verify(parts[1])
		if err != nil {
			msg := "Authentication failed"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Session expired, please log in again"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"message": msg})
			c.Abort()
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}
