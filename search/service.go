// Package search runs query sessions: it ingests rows into per component
// aggregators and answers polls, returning only what changed when asked.
package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vegasq/parsearch/query"
)

// Service is the entry point for search requests.
type Service struct {
	cache  *Cache
	logger *slog.Logger
}

func NewService(cache *Cache, logger *slog.Logger) *Service {
	return &Service{cache: cache, logger: logger}
}

// Search answers one poll. The first request for a key must carry the
// query and starts the session; later polls may omit it. A poll for an
// unknown key without a query has nothing to report and is complete. A
// request without a key gets a generated one, returned in the response.
func (s *Service) Search(ctx context.Context, req *query.SearchRequest) (*query.SearchResponse, error) {
	if req == nil {
		return nil, errors.New("no search request")
	}

	var generated bool
	key := req.Key
	if key.UUID == "" {
		if req.Query == nil {
			return &query.SearchResponse{Complete: true}, nil
		}
		key = query.QueryKey{UUID: uuid.NewString()}
		generated = true
	}

	session, ok := s.cache.Lookup(key.UUID)
	if !ok {
		if req.Query == nil {
			return &query.SearchResponse{Complete: true}, nil
		}
		var err error
		if session, err = s.cache.Get(ctx, key, req); err != nil {
			return nil, err
		}
	}

	resp, err := session.Poll(ctx, req, time.Now())
	if errors.Is(err, ErrSessionClosed) {
		// removed while this poll was waiting
		return &query.SearchResponse{Complete: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if generated {
		resp.Key = &key
	}
	return resp, nil
}

// Destroy ends the session for key, reporting whether one existed.
func (s *Service) Destroy(key query.QueryKey) bool {
	ok := s.cache.Remove(key.UUID)
	if ok {
		s.logger.Info("search destroyed", "key", key.UUID)
	}
	return ok
}

// Close destroys every session.
func (s *Service) Close() error {
	return s.cache.Close()
}
