package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers contains the auth HTTP handlers
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Token handles client credential exchange
// POST /api/v1/auth/token
func (h *Handlers) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "VALIDATION_ERROR",
			"message": err.Error(),
		})
		return
	}

	pair, err := h.service.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		if authErr, ok := err.(AuthError); ok {
			status := http.StatusUnauthorized
			if authErr.Code == ErrClientDisabled.Code {
				status = http.StatusForbidden
			}
			c.JSON(status, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_ERROR",
			"message": "failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Refresh handles token refresh
// POST /api/v1/auth/refresh
func (h *Handlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "VALIDATION_ERROR",
			"message": err.Error(),
		})
		return
	}

	pair, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		if authErr, ok := err.(AuthError); ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_ERROR",
			"message": "failed to refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Revoke handles refresh token revocation
// POST /api/v1/auth/revoke
func (h *Handlers) Revoke(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "VALIDATION_ERROR",
			"message": err.Error(),
		})
		return
	}

	h.service.Revoke(req.RefreshToken)

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

// RegisterRoutes registers the auth routes on a router group
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/token", h.Token)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/revoke", h.Revoke)
	}
}
