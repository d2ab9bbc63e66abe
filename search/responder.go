package search

import (
	"fmt"
	"sync"
	"time"

	"github.com/gohugoio/hashstructure"
	"github.com/sourcegraph/conc/iter"

	"github.com/vegasq/parsearch/format"
	"github.com/vegasq/parsearch/internal/metrics"
	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/table"
)

// delivered is the last result sent for a component
type delivered struct {
	hash   uint64
	hashed bool
	result query.Result
}

// Responder decides which component results a poll returns. It remembers
// the last result delivered per component so CHANGES requests only
// receive results that differ from it.
type Responder struct {
	mu   sync.Mutex
	last map[string]delivered
}

func NewResponder() *Responder {
	return &Responder{last: make(map[string]delivered)}
}

// Reset forgets every delivered result.
func (r *Responder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.last)
}

// sessionView is the state of a session a poll answers from
type sessionView struct {
	components        map[string]*component
	complete          bool
	errors            []string
	highlights        []string
	defaultMaxResults table.Sizes
	storeSizes        table.Sizes
	locale            string
	location          *time.Location
}

// Respond builds the response to req. A non incremental request gets no
// results until the search is complete. Components are extracted
// concurrently; a failing component yields a result carrying its error.
func (r *Responder) Respond(req *query.SearchRequest, view *sessionView) *query.SearchResponse {
	resp := &query.SearchResponse{
		Highlights: view.highlights,
		Errors:     view.errors,
		Complete:   view.complete,
	}
	if !req.Incremental && !view.complete {
		return resp
	}

	var wanted []query.ResultRequest
	for _, rr := range req.ResultRequests {
		if rr.FetchMode() == query.FetchNone {
			metrics.ResultsTotal.WithLabelValues(string(query.FetchNone), "skipped").Inc()
			continue
		}
		wanted = append(wanted, rr)
	}

	formatter := format.New(view.locale, view.location)
	results := iter.Map(wanted, func(rr *query.ResultRequest) query.Result {
		return view.result(*rr, formatter)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rr := range wanted {
		res := results[i]
		fetch := rr.FetchMode()
		if fetch == query.FetchChanges && !r.changed(rr.ComponentID, res) {
			metrics.ResultsTotal.WithLabelValues(string(fetch), "unchanged").Inc()
			continue
		}
		r.record(rr.ComponentID, res)
		resp.Results = append(resp.Results, res)

		outcome := "sent"
		if res.Err() != "" {
			outcome = "error"
		}
		metrics.ResultsTotal.WithLabelValues(string(fetch), outcome).Inc()
	}
	return resp
}

// changed compares fingerprints first and falls back to structural
// equality when they match.
func (r *Responder) changed(id string, res query.Result) bool {
	prev, ok := r.last[id]
	if !ok {
		return true
	}
	if hash, err := hashstructure.Hash(res, nil); err == nil && prev.hashed && hash != prev.hash {
		return true
	}
	return !prev.result.Equal(res)
}

func (r *Responder) record(id string, res query.Result) {
	d := delivered{result: res}
	if hash, err := hashstructure.Hash(res, nil); err == nil {
		d.hash, d.hashed = hash, true
	}
	r.last[id] = d
}

func (v *sessionView) result(rr query.ResultRequest, f *format.Formatter) (res query.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = errorResult(rr, fmt.Errorf("component %q failed: %v", rr.ComponentID, p))
		}
	}()

	c, ok := v.components[rr.ComponentID]
	if !ok {
		return errorResult(rr, fmt.Errorf("unknown component %q", rr.ComponentID))
	}
	if c.err != nil {
		return errorResult(rr, c.err)
	}

	sizes := table.Min(table.NewSizes(c.settings.MaxResults), v.defaultMaxResults)
	switch rr.Style() {
	case query.StyleTable:
		return v.table(rr, c, sizes, f)
	case query.StyleFlat:
		return v.flat(rr, c, sizes)
	default:
		return errorResult(rr, fmt.Errorf("unsupported result style %q", rr.ResultStyle))
	}
}

func (v *sessionView) table(rr query.ResultRequest, c *component, sizes table.Sizes, f *format.Formatter) query.Result {
	rows, total := table.ExtractTable(c.agg.Data(), table.TableOptions{
		Fields:     c.fields,
		Sizes:      sizes,
		Range:      rr.RequestedRange,
		OpenGroups: rr.OpenGroups,
		Formatter:  f,
	})
	var offset int64
	if rr.RequestedRange != nil {
		offset = max(rr.RequestedRange.Offset, 0)
	}
	return &query.TableResult{
		ComponentID:  rr.ComponentID,
		Rows:         rows,
		ResultRange:  query.OffsetRange{Offset: offset, Length: int64(len(rows))},
		TotalResults: total,
	}
}

func (v *sessionView) flat(rr query.ResultRequest, c *component, sizes table.Sizes) query.Result {
	structure := table.FlatStructure(c.fields)
	rows := table.ExtractFlat(c.agg.Data(), c.fields, sizes)

	for _, m := range c.mappings {
		data, fields, err := table.Remap(structure, rows, m, table.Min(table.NewSizes(m.MaxResults), v.storeSizes))
		if err != nil {
			return errorResult(rr, fmt.Errorf("component %q mapping: %w", rr.ComponentID, err))
		}
		structure = table.FlatStructure(fields)
		rows = table.ExtractFlat(data, fields, table.Min(table.NewSizes(m.MaxResults), v.defaultMaxResults))
	}

	return &query.FlatResult{
		ComponentID: rr.ComponentID,
		Structure:   structure,
		Values:      table.Window(rows, rr.RequestedRange),
		Size:        int64(len(rows)),
	}
}

func errorResult(rr query.ResultRequest, err error) query.Result {
	if rr.Style() == query.StyleFlat {
		return &query.FlatResult{ComponentID: rr.ComponentID, Structure: []query.Field{}, Values: [][]interface{}{}, Error: err.Error()}
	}
	return &query.TableResult{ComponentID: rr.ComponentID, Rows: []query.Row{}, Error: err.Error()}
}
