package table

import (
	"math"
	"sort"

	"github.com/vegasq/parsearch/format"
	"github.com/vegasq/parsearch/query"
)

// Flat result columns describing each row's position in the tree.
const (
	ParentKeyColumn = ":ParentKey"
	KeyColumn       = ":Key"
	DepthColumn     = ":Depth"
)

// TableOptions controls ExtractTable.
type TableOptions struct {
	Fields *query.CompiledFields
	// Sizes caps the items shown below each group.
	Sizes Sizes
	// Range selects a page; nil returns every visible row.
	Range *query.OffsetRange
	// OpenGroups holds the codes of groups whose children are shown.
	OpenGroups []string
	Formatter  *format.Formatter
}

// ExtractTable walks the snapshot depth first in sort order, descending
// only into open groups, and returns the formatted rows inside the range
// together with the number of rows visible in total.
func ExtractTable(data *Data, opts TableOptions) ([]query.Row, int64) {
	offset, length := int64(0), int64(math.MaxInt64)
	if opts.Range != nil {
		offset, length = max(opts.Range.Offset, 0), max(opts.Range.Length, 0)
	}
	open := make(map[string]bool, len(opts.OpenGroups))
	for _, code := range opts.OpenGroups {
		open[code] = true
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = format.New("", nil)
	}

	rows := []query.Row{}
	var pos int64
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		limit := opts.Sizes.Size(depth)
		for i, item := range sortedChildren(data, parent, opts.Fields) {
			if i >= limit {
				break
			}
			if pos >= offset && int64(len(rows)) < length {
				rows = append(rows, formatRow(item, opts.Fields, formatter))
			}
			pos++
			if item.Key != nil && open[item.Key.Code()] {
				walk(item.Key.Code(), depth+1)
			}
		}
	}
	walk("", 0)

	return rows, pos
}

func formatRow(item *Item, fields *query.CompiledFields, formatter *format.Formatter) query.Row {
	values := item.Values()
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = formatter.Format(v, fields.Fields[i].Field.Format)
	}
	return query.Row{
		GroupKey: item.Key.Code(),
		Depth:    item.Depth,
		Values:   formatted,
	}
}

// sortedChildren returns a sorted copy of one bucket
func sortedChildren(data *Data, parent string, fields *query.CompiledFields) []*Item {
	items := data.Children(parent)
	if !fields.Sorted() || len(items) < 2 {
		return items
	}
	sorted := append([]*Item(nil), items...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return fields.Compare(sorted[a].Values(), sorted[b].Values()) < 0
	})
	return sorted
}

// FlatStructure returns the columns ExtractFlat produces for fields.
func FlatStructure(fields *query.CompiledFields) []query.Field {
	structure := []query.Field{
		{ID: ParentKeyColumn, Name: ParentKeyColumn},
		{ID: KeyColumn, Name: KeyColumn},
		{ID: DepthColumn, Name: DepthColumn},
	}
	for _, f := range fields.Fields {
		structure = append(structure, f.Field)
	}
	return structure
}

// ExtractFlat expands every group of the snapshot in sort order, capped by
// sizes, into rows of raw values prefixed by the parent key, key and depth
// columns.
func ExtractFlat(data *Data, fields *query.CompiledFields, sizes Sizes) [][]interface{} {
	rows := [][]interface{}{}
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		limit := sizes.Size(depth)
		for i, item := range sortedChildren(data, parent, fields) {
			if i >= limit {
				break
			}
			row := make([]interface{}, 0, 3+len(fields.Fields))
			row = append(row, nullable(parent), nullable(item.Key.Code()), int64(item.Depth))
			row = append(row, item.Values()...)
			rows = append(rows, row)
			if item.Key != nil {
				walk(item.Key.Code(), depth+1)
			}
		}
	}
	walk("", 0)
	return rows
}

func nullable(code string) interface{} {
	if code == "" {
		return nil
	}
	return code
}

// Remap aggregates flat rows described by structure through another
// table mapping. Mapping fields reference structure columns by name.
func Remap(structure []query.Field, rows [][]interface{}, settings query.TableSettings, sizes Sizes) (*Data, *query.CompiledFields, error) {
	index := query.NewFieldIndex()
	fields, err := query.Compile(settings, index)
	if err != nil {
		return nil, nil, err
	}

	columns := make(map[string]int, len(structure))
	for i, f := range structure {
		name := f.Name
		if name == "" {
			name = f.ID
		}
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}
	positions := make([]int, index.Size())
	for i, name := range index.Names() {
		pos, ok := columns[name]
		if !ok {
			pos = -1
		}
		positions[i] = pos
	}

	agg := NewAggregator(fields, sizes)
	for _, row := range rows {
		input := make([]interface{}, len(positions))
		for i, pos := range positions {
			if pos >= 0 && pos < len(row) {
				input[i] = query.Normalize(row[pos])
			}
		}
		agg.Add(input)
	}
	agg.Complete()
	return agg.Data(), fields, nil
}

// Window returns the rows of a flat result inside r.
func Window(rows [][]interface{}, r *query.OffsetRange) [][]interface{} {
	if r == nil {
		return rows
	}
	total := int64(len(rows))
	start := min(max(r.Offset, 0), total)
	end := total
	if length := max(r.Length, 0); length < total-start {
		end = start + length
	}
	return rows[start:end]
}
