package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"signal-fusion-engine/internal/auth"
	"signal-fusion-engine/internal/cache"
	"signal-fusion-engine/internal/database"
	"signal-fusion-engine/internal/events"
	"signal-fusion-engine/internal/market"
	"signal-fusion-engine/internal/signal"
	"signal-fusion-engine/internal/vault"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader  = "X-Request-ID"
	loggerContextKey = "request_logger"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	// Filter out old requests
	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	generator   *signal.Generator
	provider    market.SnapshotProvider
	repo        *database.Repository
	eventBus    *events.EventBus
	cache       *cache.CacheService
	vaultClient *vault.Client
	authService *auth.Service
	authEnabled bool
	config      ServerConfig
	rateLimiter *RateLimiter
	logger      zerolog.Logger
	startedAt   time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	ProductionMode bool     `json:"production_mode"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimit      int      `json:"rate_limit"` // requests per minute per endpoint
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	generator *signal.Generator,
	provider market.SnapshotProvider, // Can be nil if no market data feed is configured
	repo *database.Repository, // Can be nil if persistence is disabled
	eventBus *events.EventBus,
	cacheService *cache.CacheService, // Can be nil if caching is disabled
	vaultClient *vault.Client, // Can be nil if vault is disabled
	authService *auth.Service, // Can be nil if auth is disabled
	logger zerolog.Logger,
) *Server {
	// Set Gin mode
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}

	server := &Server{
		router:      router,
		generator:   generator,
		provider:    provider,
		repo:        repo,
		eventBus:    eventBus,
		cache:       cacheService,
		vaultClient: vaultClient,
		authService: authService,
		authEnabled: authService != nil,
		config:      config,
		rateLimiter: NewRateLimiter(rateLimit, time.Minute),
		logger:      logger.With().Str("component", "api").Logger(),
		startedAt:   time.Now(),
	}

	router.Use(server.requestIDMiddleware())

	server.setupRoutes()

	// Initialize the WebSocket hub for real-time signal broadcasting
	InitWebSocket(eventBus, server.logger)

	return server
}

// requestIDMiddleware tags every request with an ID and stores a
// request-scoped logger in the gin context. Incoming X-Request-ID headers
// are trusted so callers can correlate logs across services.
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)

		reqLogger := s.logger.With().Str("request_id", id).Logger()
		c.Set(loggerContextKey, &reqLogger)

		c.Next()
	}
}

// requestLogger returns the request-scoped logger, falling back to the
// server logger when the middleware did not run.
func (s *Server) requestLogger(c *gin.Context) zerolog.Logger {
	if v, ok := c.Get(loggerContextKey); ok {
		if l, ok := v.(*zerolog.Logger); ok {
			return *l
		}
	}
	return s.logger
}

// rateLimitMiddleware creates a middleware that rate limits requests by endpoint
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests to this endpoint. Please slow down.",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)

	// Auth routes (public, no authentication required)
	v1 := s.router.Group("/api/v1")
	if s.authEnabled {
		authHandlers := auth.NewHandlers(s.authService)
		authHandlers.RegisterRoutes(v1)
	}

	// Auth status endpoint (always available, returns whether auth is enabled)
	v1.GET("/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth_enabled": s.authEnabled})
	})

	// API routes (protected when auth is enabled)
	api := v1.Group("")
	api.Use(s.rateLimitMiddleware())

	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.JWTManager()))
	}

	{
		// Signal endpoints
		signals := api.Group("/signals")
		{
			signals.POST("/generate", s.requireRole(auth.RoleTrader), s.handleGenerateSignal)
			signals.GET("/history", s.handleGetSignalHistory)
			signals.GET("/last/:asset_id", s.handleGetLastSignal)
			signals.GET("/:id", s.handleGetSignalByID)
		}

		// Strategy endpoints
		strategies := api.Group("/strategies")
		{
			strategies.POST("/validate", s.handleValidateStrategy)
		}

		// Engine endpoints
		api.GET("/engines", s.handleListEngines)

		// Provider credential endpoints (admin only)
		providers := api.Group("/providers", s.requireRole(auth.RoleAdmin))
		{
			providers.GET("", s.handleListProviders)
			providers.POST("/credentials", s.handleStoreProviderCredentials)
			providers.DELETE("/credentials/:provider", s.handleDeleteProviderCredentials)
		}
	}
}

// requireRole applies role enforcement only when auth is enabled
func (s *Server) requireRole(role string) gin.HandlerFunc {
	if !s.authEnabled {
		return func(c *gin.Context) { c.Next() }
	}
	return auth.RequireRole(role)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	healthy := true
	if s.repo != nil {
		dbStatus = "healthy"
		if err := s.repo.HealthCheck(ctx); err != nil {
			dbStatus = "unhealthy"
			healthy = false
		}
	}

	cacheStatus := "disabled"
	if s.cache != nil {
		cacheStatus = "healthy"
		if !s.cache.IsHealthy() {
			// A degraded cache does not fail the health check, the
			// pipeline keeps working without it.
			cacheStatus = "degraded"
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"cache":     cacheStatus,
		"uptime":    time.Since(s.startedAt).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
