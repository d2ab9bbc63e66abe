// Package table aggregates input rows into capped, grouped tables and
// extracts pages of them.
//
// An Aggregator has a single writer that adds rows and publishes
// snapshots; any number of readers extract from the latest snapshot
// without locking:
//
//	agg := table.NewAggregator(fields, table.NewSizes([]int{100, 10}))
//	for _, row := range rows {
//	    agg.Add(row)
//	}
//	agg.Complete()
//	rows, total := table.ExtractTable(agg.Data(), opts)
package table

import (
	"container/heap"
	"slices"
	"sync/atomic"

	"github.com/vegasq/parsearch/query"
)

// entry is the writer's mutable form of an item
type entry struct {
	key        *GroupKey
	depth      int
	generators []query.Generator

	slot    int           // position in the bucket, stable for the entry's life
	rank    int           // position in the bucket's heap
	sortKey []interface{} // resolved values as of the last change
}

func (e *entry) values() []interface{} {
	values := make([]interface{}, len(e.generators))
	for i, g := range e.generators {
		values[i] = g.Eval()
	}
	return values
}

func (e *entry) freeze() *Item {
	generators := make([]query.Generator, len(e.generators))
	for i, g := range e.generators {
		generators[i] = g.Clone()
	}
	return &Item{Key: e.key, Depth: e.depth, generators: generators}
}

// ranking is a max-heap of entries, the entry sorting last on top
type ranking struct {
	fields  *query.CompiledFields
	entries []*entry
}

func (r *ranking) Len() int { return len(r.entries) }
func (r *ranking) Less(i, j int) bool {
	return r.fields.Compare(r.entries[i].sortKey, r.entries[j].sortKey) > 0
}
func (r *ranking) Swap(i, j int) {
	r.entries[i], r.entries[j] = r.entries[j], r.entries[i]
	r.entries[i].rank = i
	r.entries[j].rank = j
}
func (r *ranking) Push(x any) {
	e := x.(*entry)
	e.rank = len(r.entries)
	r.entries = append(r.entries, e)
}
func (r *ranking) Pop() any {
	last := len(r.entries) - 1
	e := r.entries[last]
	r.entries[last] = nil
	r.entries = r.entries[:last]
	return e
}

// bucket holds the children of one parent group. items is the published
// form of entries, slot for slot; snapshots share its backing array up to
// shared, so slots below shared are copied before being written.
type bucket struct {
	entries []*entry
	index   map[string]int // key code → slot
	ranking *ranking       // nil when unsorted

	items   []*Item
	shared  int
	pending []int // slots changed since the last publish
}

func newBucket(fields *query.CompiledFields) *bucket {
	b := &bucket{index: make(map[string]int)}
	if fields.Sorted() {
		b.ranking = &ranking{fields: fields}
	}
	return b
}

func (b *bucket) full(size int) bool { return len(b.entries) >= size }

// touch marks the item in slot as changed
func (b *bucket) touch(slot int) {
	if b.items[slot] == nil {
		return
	}
	if slot < b.shared {
		b.items = slices.Clone(b.items)
		b.shared = 0
	}
	b.items[slot] = nil
	b.pending = append(b.pending, slot)
}

func (b *bucket) add(e *entry) {
	e.slot = len(b.entries)
	b.entries = append(b.entries, e)
	b.items = append(b.items, nil)
	b.pending = append(b.pending, e.slot)
	if e.key != nil {
		b.index[e.key.Code()] = e.slot
	}
	if b.ranking != nil {
		heap.Push(b.ranking, e)
	}
}

func (b *bucket) update(e *entry, row []interface{}) {
	for _, g := range e.generators {
		g.Set(row)
	}
	b.touch(e.slot)
	if b.ranking != nil {
		e.sortKey = e.values()
		heap.Fix(b.ranking, e.rank)
	}
}

// worst returns the entry sorting last
func (b *bucket) worst() *entry {
	return b.ranking.entries[0]
}

// replace puts e in the slot and rank of old
func (b *bucket) replace(old, e *entry) {
	if old.key != nil {
		delete(b.index, old.key.Code())
	}
	e.slot, e.rank = old.slot, old.rank
	b.entries[e.slot] = e
	b.ranking.entries[e.rank] = e
	if e.key != nil {
		b.index[e.key.Code()] = e.slot
	}
	b.touch(e.slot)
	heap.Fix(b.ranking, e.rank)
}

// publish freezes the changed slots and returns the bucket's items
func (b *bucket) publish() []*Item {
	for _, slot := range b.pending {
		if b.items[slot] == nil {
			b.items[slot] = b.entries[slot].freeze()
		}
	}
	b.pending = b.pending[:0]
	b.shared = len(b.items)
	return b.items[:b.shared:b.shared]
}

// Aggregator groups input rows of one table. Add, Publish, Complete and
// Error must be called from a single goroutine; Data may be called from
// any goroutine.
type Aggregator struct {
	fields *query.CompiledFields
	sizes  Sizes

	buckets map[string]*bucket

	complete   bool
	errors     []string
	highlights []string
	rows       int64

	published atomic.Pointer[Data]
}

// NewAggregator returns an empty aggregator keeping at most
// sizes.Size(depth) items below each group.
func NewAggregator(fields *query.CompiledFields, sizes Sizes) *Aggregator {
	a := &Aggregator{
		fields:  fields,
		sizes:   sizes,
		buckets: make(map[string]*bucket),
	}
	a.published.Store(emptyData)
	return a
}

// Fields returns the compiled fields the aggregator was built with.
func (a *Aggregator) Fields() *query.CompiledFields { return a.fields }

// Add folds one positional input row into every depth. Rows rejected by
// a field filter are ignored.
func (a *Aggregator) Add(row []interface{}) {
	if !a.fields.Accept(row) {
		return
	}
	a.rows++

	var parent *GroupKey
	for depth := 0; depth <= a.fields.MaxDepth; depth++ {
		var key *GroupKey
		if !a.fields.IsDetail(depth) {
			key = NewGroupKey(parent, a.fields.GroupValues(depth, row))
		}
		if !a.collect(parent, key, depth, row) {
			return
		}
		parent = key
	}
}

// collect adds row below parent at depth. It returns false when the row
// was dropped by the cap, in which case deeper depths are skipped too.
func (a *Aggregator) collect(parent, key *GroupKey, depth int, row []interface{}) bool {
	code := parent.Code()
	b, ok := a.buckets[code]
	if !ok {
		b = newBucket(a.fields)
		a.buckets[code] = b
	}

	if key != nil {
		if slot, ok := b.index[key.Code()]; ok {
			b.update(b.entries[slot], row)
			return true
		}
	}

	full := b.full(a.sizes.Size(depth))
	if full && b.ranking == nil {
		return false
	}

	e := &entry{key: key, depth: depth, generators: make([]query.Generator, len(a.fields.Fields))}
	for i := range a.fields.Fields {
		g := a.fields.Fields[i].NewGenerator()
		g.Set(row)
		e.generators[i] = g
	}
	if b.ranking != nil {
		e.sortKey = e.values()
	}

	if !full {
		b.add(e)
		return true
	}
	if len(b.entries) == 0 {
		return false
	}
	worst := b.worst()
	if a.fields.Compare(e.sortKey, worst.sortKey) >= 0 {
		return false
	}
	b.replace(worst, e)
	a.evict(worst)
	return true
}

// evict drops everything below an evicted entry
func (a *Aggregator) evict(e *entry) {
	if e.key == nil {
		return
	}
	code := e.key.Code()
	b, ok := a.buckets[code]
	if !ok {
		return
	}
	for _, child := range b.entries {
		a.evict(child)
	}
	delete(a.buckets, code)
}

// Publish makes the current state visible to readers. Items unchanged
// since the previous snapshot are shared with it.
func (a *Aggregator) Publish() *Data {
	buckets := make(map[string][]*Item, len(a.buckets))
	for code, b := range a.buckets {
		buckets[code] = b.publish()
	}

	d := &Data{
		buckets:    buckets,
		complete:   a.complete,
		errors:     append([]string(nil), a.errors...),
		highlights: a.highlights,
		rows:       a.rows,
	}
	a.published.Store(d)
	return d
}

// Data returns the latest published snapshot.
func (a *Aggregator) Data() *Data {
	return a.published.Load()
}

// Complete marks the input as exhausted and publishes.
func (a *Aggregator) Complete() {
	a.complete = true
	a.Publish()
}

// Error records an input failure and publishes. It does not complete the
// aggregator.
func (a *Aggregator) Error(err error) {
	if err == nil {
		return
	}
	a.errors = append(a.errors, err.Error())
	a.Publish()
}

// SetHighlights records terms for clients to highlight.
func (a *Aggregator) SetHighlights(highlights []string) {
	a.highlights = append([]string(nil), highlights...)
}
