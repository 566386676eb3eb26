// Package server wires the store, import coordinator and API handler into a
// gin HTTP server.
package server

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pulseboard/internal/api"
	"pulseboard/internal/config"
	"pulseboard/internal/importer"
	"pulseboard/internal/report"
	"pulseboard/internal/store"
)

// Server the HTTP server.
type Server struct {
	router *gin.Engine
	store  *store.Store
	log    *logrus.Logger
}

// NewServer builds the server and everything behind it.
func NewServer(cfg *config.AppConfig, log *logrus.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}

	st, err := store.New(filepath.Join(dataDir, "pulseboard.db"))
	if err != nil {
		return nil, err
	}

	coord := importer.NewCoordinator(st, importer.Config{
		ReasonKeywords:      cfg.Import.ReasonKeywords,
		InternalProjectName: cfg.Import.InternalProjectName,
	}, log)
	handler := api.NewHandler(st, coord, report.NewService(st))

	s := &Server{
		router: gin.Default(),
		store:  st,
		log:    log,
	}
	s.setupRoutes(handler)
	return s, nil
}

func (s *Server) setupRoutes(handler *api.Handler) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	handler.RegisterRoutes(group)
}

// Run starts the server on addr, blocking.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Store exposes the store for tests.
func (s *Server) Store() *store.Store {
	return s.store
}
