// Package api exposes the live-status snapshot and stored run summaries
// over a small read-only HTTP surface.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradesim/internal/engine"
	"tradesim/internal/repository"
)

// StatusSource is anything that can produce a live snapshot on demand.
type StatusSource interface {
	Snapshot() engine.LiveStatus
}

// RunStore is the read side of the persistence collaborator.
type RunStore interface {
	GetRunSummary(ctx context.Context, id uuid.UUID) (*repository.RunSummary, error)
	ListRunSummaries(ctx context.Context, limit int) ([]*repository.RunSummary, error)
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	live   StatusSource
	runs   RunStore
	log    zerolog.Logger
}

func NewServer(port int, live StatusSource, runs RunStore, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		engine: router,
		live:   live,
		runs:   runs,
		log:    log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/positions", s.getPositions)
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("status API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
