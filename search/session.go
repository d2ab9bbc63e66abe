package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/internal/metrics"
	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/reader"
	"github.com/vegasq/parsearch/table"
)

// ErrSessionClosed is returned by polls against a removed session.
var ErrSessionClosed = errors.New("search session closed")

// Options tunes every session of a cache.
type Options struct {
	// StoreSizes caps the items aggregated per group depth.
	StoreSizes table.Sizes
	// DefaultMaxResults caps the rows returned per group depth.
	DefaultMaxResults table.Sizes
	// BatchSize is the number of rows ingested between snapshots.
	BatchSize int
	// Locale selects number formatting.
	Locale string
}

// DefaultOptions returns the sizes used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		StoreSizes:        table.NewSizes([]int{1000000, 100, 10, 1}),
		DefaultMaxResults: table.NewSizes([]int{1000000}),
		BatchSize:         1000,
		Locale:            "en-US",
	}
}

// component is one table of a query with its own aggregator
type component struct {
	id       string
	settings query.TableSettings
	fields   *query.CompiledFields
	agg      *table.Aggregator
	// mappings re-aggregate flat results
	mappings []query.TableSettings
	err      error
}

// Session is the live state of one query: an aggregator per result
// component fed by a single ingestion task, and the responder tracking
// what each component last delivered.
type Session struct {
	key        query.QueryKey
	query      *query.Query
	location   *time.Location
	opts       Options
	index      *query.FieldIndex
	highlights []string
	responder  *Responder

	created    time.Time
	lastAccess atomic.Int64

	// mu is held for reading by polls and for writing by Destroy
	mu         sync.RWMutex
	closed     bool
	components map[string]*component

	cancel   context.CancelFunc
	done     chan struct{}
	complete atomic.Bool

	errMu  sync.Mutex
	errors []string
}

// NewSession compiles the components of req. Components whose settings
// fail to compile report the error in their results.
func NewSession(key query.QueryKey, req *query.SearchRequest, opts Options, now time.Time) *Session {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	s := &Session{
		key:        key,
		query:      req.Query,
		location:   zone(req.DateTimeLocale),
		opts:       opts,
		index:      query.NewFieldIndex(),
		highlights: expression.Highlights(req.Query.ResolvedExpression()),
		responder:  NewResponder(),
		created:    now,
		components: make(map[string]*component, len(req.ResultRequests)),
		done:       make(chan struct{}),
	}
	s.lastAccess.Store(now.UnixNano())

	for _, rr := range req.ResultRequests {
		if _, exists := s.components[rr.ComponentID]; exists {
			continue
		}
		s.components[rr.ComponentID] = s.compile(rr)
	}
	return s
}

func (s *Session) compile(rr query.ResultRequest) *component {
	c := &component{id: rr.ComponentID}
	if len(rr.Mappings) == 0 {
		c.err = fmt.Errorf("component %q has no table settings", rr.ComponentID)
		return c
	}
	c.settings = rr.Mappings[0]
	c.mappings = rr.Mappings[1:]

	fields, err := query.Compile(c.settings, s.index)
	if err != nil {
		c.err = fmt.Errorf("component %q: %w", rr.ComponentID, err)
		return c
	}
	c.fields = fields
	c.agg = table.NewAggregator(fields, table.Min(table.NewSizes(c.settings.MaxResults), s.opts.StoreSizes))
	c.agg.SetHighlights(s.highlights)
	return c
}

func zone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *Session) Key() query.QueryKey { return s.key }

// Created returns when the session was created.
func (s *Session) Created() time.Time { return s.created }

// LastAccess returns when the session was last polled.
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

// Complete reports whether the row source was read to the end.
func (s *Session) Complete() bool { return s.complete.Load() }

// Done is closed when ingestion stops for any reason.
func (s *Session) Done() <-chan struct{} { return s.done }

// Errors returns the ingestion errors recorded so far.
func (s *Session) Errors() []string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return append([]string(nil), s.errors...)
}

func (s *Session) fail(err error) {
	s.errMu.Lock()
	s.errors = append(s.errors, err.Error())
	s.errMu.Unlock()
}

// aggregators returns the live aggregators in no particular order
func (s *Session) aggregators() []*table.Aggregator {
	var aggs []*table.Aggregator
	for _, c := range s.components {
		if c.agg != nil {
			aggs = append(aggs, c.agg)
		}
	}
	return aggs
}

// Ingest reads the query's rows from source into every component,
// publishing snapshots every BatchSize rows. It is the single writer of
// the session's aggregators and must run once.
func (s *Session) Ingest(ctx context.Context, source reader.RowSource, logger *slog.Logger) {
	defer close(s.done)

	ctx, cancel := context.WithCancel(reader.WithLocation(ctx, s.location))
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancel = cancel
	aggs := s.aggregators()
	s.mu.Unlock()

	filter := s.query.ResolvedExpression()
	logger.Debug("search started", "key", s.key.UUID, "source", s.query.DataSource, "filter", filter.String(), "filter_fields", expression.Fields(filter))

	start := time.Now()
	var rows int64
	err := source.Stream(ctx, s.query, func(row map[string]interface{}) error {
		values := s.index.Values(row)
		for _, agg := range aggs {
			agg.Add(values)
		}
		rows++
		if rows%int64(s.opts.BatchSize) == 0 {
			for _, agg := range aggs {
				agg.Publish()
			}
		}
		return nil
	})
	metrics.RowsIngested.Add(float64(rows))
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		for _, agg := range aggs {
			agg.Complete()
		}
		s.complete.Store(true)
		logger.Debug("search complete", "key", s.key.UUID, "rows", rows, "elapsed", time.Since(start))
	case ctx.Err() != nil:
		logger.Debug("search cancelled", "key", s.key.UUID, "rows", rows)
	default:
		err = fmt.Errorf("failed to read %s: %w", s.query.DataSource, err)
		s.fail(err)
		for _, agg := range aggs {
			agg.Error(err)
		}
		metrics.IngestErrors.Inc()
		logger.Warn("search failed", "key", s.key.UUID, "rows", rows, "error", err)
	}
}

// Poll answers one request from the latest snapshots. It waits for
// completion up to the request timeout when the request is not
// incremental.
func (s *Session) Poll(ctx context.Context, req *query.SearchRequest, now time.Time) (*query.SearchResponse, error) {
	s.touch(now)
	if !req.Incremental && req.Timeout != nil && *req.Timeout > 0 {
		s.wait(ctx, time.Duration(*req.Timeout)*time.Millisecond)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	view := &sessionView{
		components:        s.components,
		complete:          s.Complete(),
		errors:            s.Errors(),
		highlights:        s.highlights,
		defaultMaxResults: s.opts.DefaultMaxResults,
		storeSizes:        s.opts.StoreSizes,
		locale:            s.opts.Locale,
		location:          s.location,
	}
	return s.responder.Respond(req, view), nil
}

func (s *Session) wait(ctx context.Context, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Destroy stops ingestion, waits for in-flight polls and releases the
// aggregators. It is safe to call more than once.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.components = nil
	s.responder.Reset()
}
