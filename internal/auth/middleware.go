package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// Context keys for client data
	ContextKeyClientID = "client_id"
	ContextKeyRole     = "client_role"
	ContextKeyClaims   = "client_claims"
)

// Middleware creates a JWT authentication middleware
func Middleware(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   ErrUnauthorized.Code,
				"message": "missing authorization header",
			})
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   ErrUnauthorized.Code,
				"message": "invalid authorization header format",
			})
			return
		}

		tokenString := parts[1]

		// Validate token
		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			authErr, ok := err.(AuthError)
			if !ok {
				authErr = ErrInvalidToken
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}

		// Set client context
		c.Set(ContextKeyClientID, claims.ClientID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// OptionalMiddleware allows requests without auth but sets client context if a token is present
func OptionalMiddleware(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err == nil && claims != nil {
			c.Set(ContextKeyClientID, claims.ClientID)
			c.Set(ContextKeyRole, claims.Role)
			c.Set(ContextKeyClaims, claims)
		}

		c.Next()
	}
}

// RequireRole middleware ensures the client has at least the specified role
func RequireRole(minRole string) gin.HandlerFunc {
	roleOrder := map[string]int{
		RoleReader: 0,
		RoleTrader: 1,
		RoleAdmin:  2,
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   ErrForbidden.Code,
				"message": "authentication required",
			})
			return
		}

		clientLevel, ok := roleOrder[role.(string)]
		if !ok {
			clientLevel = 0
		}

		minLevel, ok := roleOrder[minRole]
		if !ok {
			minLevel = 0
		}

		if clientLevel < minLevel {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   ErrForbidden.Code,
				"message": minRole + " role required",
			})
			return
		}

		c.Next()
	}
}

// GetClientID extracts the client ID from the Gin context
func GetClientID(c *gin.Context) string {
	if clientID, exists := c.Get(ContextKeyClientID); exists {
		return clientID.(string)
	}
	return ""
}

// GetClientClaims extracts the full client claims from the Gin context
func GetClientClaims(c *gin.Context) *ClientClaims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		return claims.(*ClientClaims)
	}
	return nil
}

// GetClientRole extracts the client role from the Gin context
func GetClientRole(c *gin.Context) string {
	if role, exists := c.Get(ContextKeyRole); exists {
		return role.(string)
	}
	return RoleReader
}
