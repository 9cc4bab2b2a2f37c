package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default bcrypt cost factor
	DefaultBcryptCost = 12

	// MinSecretLength is the minimum client secret length
	MinSecretLength = 16

	// MaxSecretLength is the maximum client secret length (to prevent DoS)
	MaxSecretLength = 128
)

// SecretManager handles client secret hashing and verification
type SecretManager struct {
	bcryptCost int
}

// NewSecretManager creates a new secret manager
func NewSecretManager(bcryptCost int) *SecretManager {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = DefaultBcryptCost
	}
	return &SecretManager{bcryptCost: bcryptCost}
}

// HashSecret hashes a client secret using bcrypt
func (s *SecretManager) HashSecret(secret string) (string, error) {
	if len(secret) < MinSecretLength {
		return "", fmt.Errorf("secret must be at least %d characters", MinSecretLength)
	}
	if len(secret) > MaxSecretLength {
		return "", fmt.Errorf("secret too long")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	return string(bytes), nil
}

// VerifySecret verifies a client secret against a stored hash
func (s *SecretManager) VerifySecret(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// HashRefreshToken creates a SHA-256 hash of a refresh token for storage
func HashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
