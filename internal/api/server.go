// Package api exposes reconciliation runs over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/caura/recon-engine/internal/infrastructure/config"
	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

// Server wires the HTTP layer to the matching engine and run storage.
type Server struct {
	cfg    *config.Config
	store  storage.Repository
	logger *slog.Logger
	router *gin.Engine
}

// NewServer builds the server and registers its routes.
func NewServer(cfg *config.Config, store storage.Repository, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	origins := s.cfg.API.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", s.getHealth)

	api := router.Group("/api")
	{
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:runId", s.getRun)
		api.GET("/stats", s.getStats)
		api.POST("/reconcile", s.reconcile)
	}

	return router
}

// Router returns the configured gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run(addr string) error {
	s.logger.Info("starting API server", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
