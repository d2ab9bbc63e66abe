package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/reader"
)

func (s *Server) search(c *gin.Context) {
	var req query.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search request: " + err.Error()})
		return
	}
	if req.Query != nil && s.schemas != nil {
		if err := s.validate(req.Query); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, reader.ErrUnknownDataSource) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
	}

	resp, err := s.searcher.Search(c.Request.Context(), &req)
	if err != nil {
		s.logger.Error("search failed", "key", req.Key.UUID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// validate rejects filters the data source cannot answer before a session
// is created for them
func (s *Server) validate(q *query.Query) error {
	registry, err := s.schemas.Registry(q.DataSource)
	if err != nil {
		return err
	}
	return expression.Validate(q.ResolvedExpression(), registry)
}

func (s *Server) destroy(c *gin.Context) {
	if !s.searcher.Destroy(query.QueryKey{UUID: c.Param("uuid")}) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such search"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listSources(c *gin.Context) {
	if s.sources == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data sources"})
		return
	}
	c.JSON(http.StatusOK, s.sources.List())
}

// fields describes a data source named by the uuid or name query parameter
func (s *Server) fields(c *gin.Context) {
	ref := expression.DocRef{Type: "DataSource", UUID: c.Query("uuid"), Name: c.Query("name")}
	if ref.UUID == "" && ref.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uuid or name is required"})
		return
	}
	if s.schemas == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data sources"})
		return
	}

	registry, err := s.schemas.Registry(ref)
	switch {
	case errors.Is(err, reader.ErrUnknownDataSource):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataSource": ref, "fields": registry.Fields()})
}
