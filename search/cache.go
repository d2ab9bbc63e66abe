package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/vegasq/parsearch/internal/metrics"
	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/reader"
)

// CacheConfig bounds the sessions of a Cache.
type CacheConfig struct {
	Options Options
	// Workers is the number of sessions ingesting at once.
	Workers int
	// MaxIdle evicts sessions not polled for this long. Zero disables it.
	MaxIdle time.Duration
	// MaxAge evicts sessions older than this. Zero disables it.
	MaxAge time.Duration
	// SweepInterval is how often the janitor evicts expired sessions.
	// Zero disables the janitor.
	SweepInterval time.Duration
}

// Cache maps query keys to live sessions. The first Get for a key
// creates the session and queues its ingestion on a bounded worker pool.
type Cache struct {
	cfg    CacheConfig
	source reader.RowSource
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	group    singleflight.Group
	pool     *ants.Pool

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCache returns a cache ingesting from source and starts its janitor.
func NewCache(source reader.RowSource, cfg CacheConfig, logger *slog.Logger) (*Cache, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	c := &Cache{
		cfg:      cfg,
		source:   source,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(v interface{}) {
		logger.Error("ingestion panic", "panic", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	c.pool = pool

	if cfg.SweepInterval > 0 {
		c.wg.Add(1)
		go c.janitor()
	}
	return c, nil
}

// Get returns the session for key, creating it from req when absent.
// Concurrent first requests for one key share a single session.
func (c *Cache) Get(ctx context.Context, key query.QueryKey, req *query.SearchRequest) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s, ok := c.Lookup(key.UUID); ok {
		return s, nil
	}
	if req.Query == nil {
		return nil, fmt.Errorf("no query for session %s", key.UUID)
	}

	v, err, _ := c.group.Do(key.UUID, func() (interface{}, error) {
		if s, ok := c.Lookup(key.UUID); ok {
			return s, nil
		}
		select {
		case <-c.stop:
			return nil, ErrSessionClosed
		default:
		}

		s := NewSession(key, req, c.cfg.Options, c.now())
		c.mu.Lock()
		c.sessions[key.UUID] = s
		c.mu.Unlock()
		metrics.SessionsActive.Inc()
		metrics.SessionsTotal.WithLabelValues("created").Inc()
		c.logger.Debug("session created", "key", key.UUID, "components", len(req.ResultRequests))

		c.start(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// start queues ingestion without blocking the caller while the pool is
// busy
func (c *Cache) start(s *Session) {
	go func() {
		err := c.pool.Submit(func() {
			s.Ingest(context.Background(), c.source, c.logger)
		})
		if err != nil {
			s.fail(fmt.Errorf("failed to start search: %w", err))
			close(s.done)
		}
	}()
}

// Lookup returns the live session for key.
func (c *Cache) Lookup(key string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[key]
	return s, ok
}

// Len returns the number of live sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Remove evicts and destroys the session for key. It reports whether a
// session was found.
func (c *Cache) Remove(key string) bool {
	if !c.remove(key) {
		return false
	}
	metrics.SessionsTotal.WithLabelValues("removed").Inc()
	return true
}

// remove unlists the session first so no new poll can reach it, then
// destroys it once in-flight polls finish
func (c *Cache) remove(key string) bool {
	c.mu.Lock()
	s, ok := c.sessions[key]
	delete(c.sessions, key)
	c.mu.Unlock()
	if !ok {
		return false
	}
	s.Destroy()
	metrics.SessionsActive.Dec()
	c.logger.Debug("session removed", "key", key)
	return true
}

// EvictExpired removes sessions idle longer than MaxIdle or older than
// MaxAge at now, returning how many were removed.
func (c *Cache) EvictExpired(now time.Time) int {
	var expired []string
	c.mu.Lock()
	for key, s := range c.sessions {
		idle := c.cfg.MaxIdle > 0 && now.Sub(s.LastAccess()) > c.cfg.MaxIdle
		old := c.cfg.MaxAge > 0 && now.Sub(s.Created()) > c.cfg.MaxAge
		if idle || old {
			expired = append(expired, key)
		}
	}
	c.mu.Unlock()

	n := 0
	for _, key := range expired {
		if c.remove(key) {
			metrics.SessionsTotal.WithLabelValues("expired").Inc()
			n++
		}
	}
	return n
}

func (c *Cache) janitor() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.EvictExpired(c.now()); n > 0 {
				c.logger.Info("evicted expired sessions", "count", n)
			}
		}
	}
}

// Close stops the janitor, destroys every session and releases the
// worker pool.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()

		c.mu.Lock()
		keys := make([]string, 0, len(c.sessions))
		for key := range c.sessions {
			keys = append(keys, key)
		}
		c.mu.Unlock()
		for _, key := range keys {
			c.remove(key)
		}

		err = c.pool.ReleaseTimeout(3 * time.Second)
	})
	return err
}
