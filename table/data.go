package table

import (
	"sync"

	"github.com/vegasq/parsearch/query"
)

// Item is one aggregated row of a published snapshot. Its generators are
// private copies, resolved into values at most once.
type Item struct {
	Key   *GroupKey // nil for detail rows
	Depth int

	generators []query.Generator
	once       sync.Once
	values     []interface{}
}

// Values resolves the item's field values.
func (i *Item) Values() []interface{} {
	i.once.Do(func() {
		i.values = make([]interface{}, len(i.generators))
		for n, g := range i.generators {
			i.values[n] = g.Eval()
		}
		i.generators = nil
	})
	return i.values
}

// Data is an immutable snapshot of an aggregator.
type Data struct {
	buckets    map[string][]*Item
	complete   bool
	errors     []string
	highlights []string
	rows       int64
}

var emptyData = &Data{}

// Children returns the items directly below the group with code parent;
// "" is the top level. The slice must not be modified.
func (d *Data) Children(parent string) []*Item {
	if d == nil {
		return nil
	}
	return d.buckets[parent]
}

// Complete reports whether every input row has been added.
func (d *Data) Complete() bool { return d != nil && d.complete }

func (d *Data) Errors() []string {
	if d == nil {
		return nil
	}
	return d.errors
}

func (d *Data) Highlights() []string {
	if d == nil {
		return nil
	}
	return d.highlights
}

// Rows is the number of input rows accepted so far.
func (d *Data) Rows() int64 {
	if d == nil {
		return 0
	}
	return d.rows
}

// Size is the number of items held at every depth.
func (d *Data) Size() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, items := range d.buckets {
		n += len(items)
	}
	return n
}
