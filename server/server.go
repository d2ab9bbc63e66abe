// Package server exposes search sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/reader"
)

// Searcher answers search polls. *search.Service implements it.
type Searcher interface {
	Search(ctx context.Context, req *query.SearchRequest) (*query.SearchResponse, error)
	Destroy(key query.QueryKey) bool
}

// Schemas describes the fields of data sources.
type Schemas interface {
	Registry(ref expression.DocRef) (*expression.Registry, error)
}

// Sources lists the configured data sources.
type Sources interface {
	List() []reader.DataSource
}

type Server struct {
	searcher Searcher
	schemas  Schemas
	sources  Sources
	logger   *slog.Logger
	engine   *gin.Engine
}

// New builds the routes. schemas and sources may be nil, in which case
// their endpoints answer 404.
func New(searcher Searcher, schemas Schemas, sources Sources, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		searcher: searcher,
		schemas:  schemas,
		sources:  sources,
		logger:   logger,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), observe(logger))
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.POST("/search", s.search)
	api.DELETE("/search/:uuid", s.destroy)
	api.GET("/datasources", s.listSources)
	api.GET("/datasources/fields", s.fields)
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
