package reader

import (
	"context"
	"time"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/query"
)

// RowSource streams the rows of a query's data source that satisfy its
// filter expression. Stream calls emit once per row and returns nil at the
// end of data. An error from emit stops the stream and is returned.
type RowSource interface {
	Stream(ctx context.Context, q *query.Query, emit func(row map[string]interface{}) error) error
}

type locationKey struct{}

// WithLocation returns a context carrying the time zone relative dates in
// filter terms are truncated in.
func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, locationKey{}, loc)
}

// LocationFrom returns the zone set by WithLocation, or UTC.
func LocationFrom(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(locationKey{}).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}

// MemorySource serves a fixed set of rows, mostly for tests and tools.
type MemorySource struct {
	Fields       *expression.Registry
	Rows         []map[string]interface{}
	Dictionaries map[string][]string
	Folders      expression.FolderResolver
}

// Stream implements RowSource.
func (m *MemorySource) Stream(ctx context.Context, q *query.Query, emit func(map[string]interface{}) error) error {
	filter := q.ResolvedExpression()
	ectx := &expression.Context{
		Fields:       m.Fields,
		Now:          time.Now(),
		Location:     LocationFrom(ctx),
		Dictionaries: m.Dictionaries,
		Folders:      m.Folders,
	}
	for _, row := range m.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if filter != nil && !expression.Evaluate(filter, row, ectx) {
			continue
		}
		if err := emit(row); err != nil {
			return err
		}
	}
	return nil
}
