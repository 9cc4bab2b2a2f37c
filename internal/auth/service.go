package auth

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// session tracks an issued refresh token. Tokens are stored hashed so a
// leaked session table cannot be replayed.
type session struct {
	clientID  string
	expiresAt time.Time
}

// Service implements client credential authentication with refresh
// token rotation. Clients are loaded from configuration at startup.
type Service struct {
	jwtManager    *JWTManager
	secretManager *SecretManager
	logger        zerolog.Logger

	mu       sync.RWMutex
	clients  map[string]Client
	sessions map[string]session // hashed refresh token -> session
}

// NewService creates a new authentication service
func NewService(cfg Config, logger zerolog.Logger) *Service {
	s := &Service{
		jwtManager:    NewJWTManager(cfg.JWTSecret, cfg.AccessTokenDuration, cfg.RefreshTokenDuration),
		secretManager: NewSecretManager(DefaultBcryptCost),
		logger:        logger.With().Str("component", "auth").Logger(),
		clients:       make(map[string]Client),
		sessions:      make(map[string]session),
	}

	for _, client := range cfg.Clients {
		if client.Role == "" {
			client.Role = RoleReader
		}
		s.clients[client.ID] = client
	}

	return s
}

// JWTManager exposes the underlying JWT manager for middleware wiring
func (s *Service) JWTManager() *JWTManager {
	return s.jwtManager
}

// Authenticate exchanges client credentials for a token pair
func (s *Service) Authenticate(clientID, clientSecret string) (*TokenPair, error) {
	s.mu.RLock()
	client, ok := s.clients[clientID]
	s.mu.RUnlock()

	if !ok {
		// Burn a bcrypt comparison so lookup misses take the same time
		// as secret mismatches.
		s.secretManager.VerifySecret(clientSecret, "$2a$12$000000000000000000000uGJBPGcfO4HOfmhvQHPFbw3PcdPpCGe")
		return nil, ErrInvalidCredentials
	}

	if client.Disabled {
		return nil, ErrClientDisabled
	}

	if !s.secretManager.VerifySecret(clientSecret, client.SecretHash) {
		s.logger.Warn().Str("client_id", clientID).Msg("Authentication failed")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwtManager.GenerateTokenPair(ClientClaims{
		ClientID: client.ID,
		Name:     client.Name,
		Role:     client.Role,
	})
	if err != nil {
		return nil, err
	}

	s.storeSession(pair.RefreshToken, client.ID)

	s.logger.Info().Str("client_id", clientID).Msg("Client authenticated")
	return pair, nil
}

// Refresh rotates a refresh token and issues a new token pair
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	hashed := HashRefreshToken(refreshToken)

	s.mu.Lock()
	sess, ok := s.sessions[hashed]
	if ok {
		delete(s.sessions, hashed)
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionRevoked
	}

	if time.Now().After(sess.expiresAt) {
		return nil, ErrTokenExpired
	}

	s.mu.RLock()
	client, ok := s.clients[sess.clientID]
	s.mu.RUnlock()

	if !ok || client.Disabled {
		return nil, ErrClientDisabled
	}

	pair, err := s.jwtManager.GenerateTokenPair(ClientClaims{
		ClientID: client.ID,
		Name:     client.Name,
		Role:     client.Role,
	})
	if err != nil {
		return nil, err
	}

	s.storeSession(pair.RefreshToken, client.ID)
	return pair, nil
}

// Revoke invalidates a refresh token
func (s *Service) Revoke(refreshToken string) {
	hashed := HashRefreshToken(refreshToken)

	s.mu.Lock()
	delete(s.sessions, hashed)
	s.mu.Unlock()
}

// RevokeClient invalidates every session of a client
func (s *Service) RevokeClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if sess.clientID == clientID {
			delete(s.sessions, token)
		}
	}
}

func (s *Service) storeSession(refreshToken, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[HashRefreshToken(refreshToken)] = session{
		clientID:  clientID,
		expiresAt: time.Now().Add(s.jwtManager.GetRefreshTokenDuration()),
	}

	// Opportunistic cleanup of expired sessions.
	now := time.Now()
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
		}
	}
}
