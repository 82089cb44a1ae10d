// Package api exposes the live session over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/middleware"
	"github.com/phleb-loss-tracker/internal/session"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	session       *session.Session
	evaluator     *session.Evaluator
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
	hub           *Hub
	registry      *prometheus.Registry
	unsubscribe   func()
}

// NewServer creates a new HTTP server instance bound to the live session.
func NewServer(configManager domain.ConfigManager, sess *session.Session, evaluator *session.Evaluator, logger *logrus.Logger) (*Server, error) {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.NewMetrics(registry).Middleware())
	router.Use(middleware.AuditLogger(logger))

	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewRateLimiter(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		router.Use(limiter.Middleware())
	}

	server := &Server{
		configManager: configManager,
		session:       sess,
		evaluator:     evaluator,
		logger:        logger,
		router:        router,
		hub:           NewHub(logger),
		registry:      registry,
	}
	server.unsubscribe = sess.Subscribe(server.publish)

	server.setupRoutes()

	return server, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
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

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.unsubscribe()
	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.router.GET("/ws", s.handleWebSocket)

	v1 := s.router.Group("/api/v1")
	if timeout := s.configManager.GetServerConfig().WriteTimeout; timeout > 0 {
		v1.Use(middleware.RequestTimeout(timeout))
	}
	{
		v1.GET("/view", s.handleGetView)
		v1.GET("/report", s.handleGetReport)
		v1.PUT("/patient", s.handleUpdatePatient)
		v1.PUT("/patient/weight", s.handleSetWeight)
		v1.PUT("/patient/preset", s.handleSetPreset)
		v1.PUT("/patient/override", s.handleSetOverride)
		v1.PUT("/patient/flags", s.handleSetContextFlags)

		v1.POST("/days", s.handleAddDay)
		v1.DELETE("/days/:index", s.handleRemoveDay)
		v1.PUT("/days/:index/date", s.handleSetDayDate)
		v1.PUT("/days/:index/waste", s.handleSetDayWaste)
		v1.PUT("/days/:index/orderables", s.handleSetOrderables)
		v1.PUT("/days/:index/orderables/:id", s.handleToggleOrderable)
		v1.DELETE("/days/:index/orderables", s.handleClearOrderables)
		v1.POST("/days/:index/bundles/:id", s.handleApplyBundle)
		v1.GET("/days/:index/panel", s.handleGetPanel)

		v1.GET("/state", s.handleExportState)
		v1.POST("/state", s.handleImportState)
		v1.DELETE("/state", s.handleResetState)

		v1.GET("/config", s.handleExportConfig)
		v1.POST("/config", s.handleImportConfig)
		v1.DELETE("/config", s.handleResetConfig)
		v1.PUT("/config/tubes/:id", s.handleSetTubeMl)

		v1.POST("/calculate", s.handleCalculate)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.configManager.GetConfig().MCP.Version,
		"clients":   s.hub.ClientCount(),
	})
}
