package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/internal/domain"
	"github.com/protein-design-studio/internal/middleware"
	"github.com/protein-design-studio/internal/service"
	"github.com/protein-design-studio/pkg/pipeline"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	design        *service.DesignService
	store         domain.UploadStore
	hub           *pipeline.Hub
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	design *service.DesignService,
	store domain.UploadStore,
	hub *pipeline.Hub,
	logger *logrus.Logger,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	if cfg.Server.WriteTimeout > 0 {
		router.Use(middleware.RequestTimeout(cfg.Server.WriteTimeout))
	}

	if cfg.Storage.MaxUploadSize > 0 {
		router.MaxMultipartMemory = cfg.Storage.MaxUploadSize
	}

	server := &Server{
		configManager: configManager,
		design:        design,
		store:         store,
		hub:           hub,
		logger:        logger,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server started")

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/spec/validate", s.handleValidateSpec)
		v1.POST("/spec/clean", s.handleCleanSpec)

		v1.POST("/upload", s.handleUpload)
		v1.GET("/files/*path", s.handleServeFile)

		design := v1.Group("/design")
		{
			design.POST("/check", s.handleCheckDesign)
			design.POST("/create", s.handleCreateDesign)
			design.GET("/list", s.handleListDesigns)
			design.GET("/results/:job_id", s.handleDesignResults)
			design.GET("/events/:job_id", s.handleDesignEvents)
		}

		v1.GET("/ws/jobs/:job_id", s.handleJobStream)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
