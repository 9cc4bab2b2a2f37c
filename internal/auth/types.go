package auth

import (
	"time"
)

// ClientClaims represents the JWT claims for an API client
type ClientClaims struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Roles recognised by the API. Readers can query signal history,
// traders can generate signals, admins can manage credentials.
const (
	RoleReader = "reader"
	RoleTrader = "trader"
	RoleAdmin  = "admin"
)

// TokenPair represents an access and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token expiry in seconds
	TokenType    string `json:"token_type"` // Always "Bearer"
}

// TokenRequest represents a client credentials exchange request
type TokenRequest struct {
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Client represents a configured API client
type Client struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SecretHash string `json:"secret_hash"`
	Role       string `json:"role"`
	Disabled   bool   `json:"disabled"`
}

// Config holds authentication configuration
type Config struct {
	Enabled              bool          `json:"enabled"`
	JWTSecret            string        `json:"jwt_secret"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`
	Clients              []Client      `json:"clients"`
}

// DefaultConfig returns default authentication configuration
func DefaultConfig() Config {
	return Config{
		Enabled:              false,
		JWTSecret:            "", // Must be set when enabled
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	}
}

// Error types for authentication
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e AuthError) Error() string {
	return e.Message
}

// Common authentication errors
var (
	ErrInvalidCredentials = AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid client id or secret"}
	ErrClientNotFound     = AuthError{Code: "CLIENT_NOT_FOUND", Message: "client not found"}
	ErrClientDisabled     = AuthError{Code: "CLIENT_DISABLED", Message: "client has been disabled"}
	ErrInvalidToken       = AuthError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrTokenExpired       = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrSessionRevoked     = AuthError{Code: "SESSION_REVOKED", Message: "session has been revoked"}
	ErrUnauthorized       = AuthError{Code: "UNAUTHORIZED", Message: "unauthorized access"}
	ErrForbidden          = AuthError{Code: "FORBIDDEN", Message: "access forbidden"}
)
