package query

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// FieldIndex assigns each referenced input column a position in input
// rows. A name gets its position once and keeps it for every table of a
// query, so all tables share one input row layout.
type FieldIndex struct {
	mu    sync.RWMutex
	names []string
	index map[string]int
}

// NewFieldIndex returns an empty index.
func NewFieldIndex() *FieldIndex {
	return &FieldIndex{index: make(map[string]int)}
}

// Create returns the position of name, assigning the next one if needed.
func (fi *FieldIndex) Create(name string) int {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if pos, ok := fi.index[name]; ok {
		return pos
	}
	pos := len(fi.names)
	fi.names = append(fi.names, name)
	fi.index[name] = pos
	return pos
}

// Get returns the position of name.
func (fi *FieldIndex) Get(name string) (int, bool) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	pos, ok := fi.index[name]
	return pos, ok
}

// Names returns the column names in position order.
func (fi *FieldIndex) Names() []string {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return append([]string(nil), fi.names...)
}

func (fi *FieldIndex) Size() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.names)
}

// Values lays out a named row as a positional input row.
func (fi *FieldIndex) Values(row map[string]interface{}) []interface{} {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	values := make([]interface{}, len(fi.names))
	for i, name := range fi.names {
		values[i] = Normalize(row[name])
	}
	return values
}

// CompiledField is a field ready to be evaluated against input rows.
type CompiledField struct {
	Field Field
	Expr  Expr
	// Group is the depth the field groups at, or -1.
	Group    int
	Includes *regexp.Regexp
	Excludes *regexp.Regexp
}

// NewGenerator returns fresh state for the field's expression.
func (f *CompiledField) NewGenerator() Generator {
	return f.Expr.NewGenerator()
}

// HasFilter reports whether the field filters rows.
func (f *CompiledField) HasFilter() bool {
	return f.Includes != nil || f.Excludes != nil
}

// Accept applies the field filter to the field's value for one row.
func (f *CompiledField) Accept(row []interface{}) bool {
	if !f.HasFilter() {
		return true
	}
	value := Stringify(f.Expr.Eval(row))
	if f.Includes != nil && !f.Includes.MatchString(value) {
		return false
	}
	if f.Excludes != nil && f.Excludes.MatchString(value) {
		return false
	}
	return true
}

// SortComparator orders items by one field.
type SortComparator struct {
	Field      int
	Order      int
	Descending bool
}

// CompiledFields is the compiled form of a TableSettings.
type CompiledFields struct {
	Fields []CompiledField
	// MaxGroupDepth is the deepest group level, -1 without grouping.
	MaxGroupDepth int
	// MaxDepth is the deepest level items are stored at. When detail is
	// shown it is the level below the deepest group.
	MaxDepth        int
	ShowDetail      bool
	SortComparators []SortComparator
}

// Compile compiles the fields of settings, assigning input positions to
// referenced columns through index.
func Compile(settings TableSettings, index *FieldIndex) (*CompiledFields, error) {
	resolve := func(string) int { return -1 }
	if settings.Extract() {
		resolve = index.Create
	}

	compiled := &CompiledFields{
		Fields:        make([]CompiledField, 0, len(settings.Fields)),
		MaxGroupDepth: -1,
		ShowDetail:    settings.ShowDetail,
	}

	for i, field := range settings.Fields {
		expr, err := ParseExpression(field.Expression, resolve)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fieldName(field, i), err)
		}

		cf := CompiledField{Field: field, Expr: expr, Group: -1}
		if field.Group != nil {
			if *field.Group < 0 {
				return nil, fmt.Errorf("field %q: negative group depth %d", fieldName(field, i), *field.Group)
			}
			cf.Group = *field.Group
			compiled.MaxGroupDepth = max(compiled.MaxGroupDepth, cf.Group)
		}
		if field.Filter != nil {
			if cf.Includes, err = compileFilter(field.Filter.Includes); err != nil {
				return nil, fmt.Errorf("field %q: includes: %w", fieldName(field, i), err)
			}
			if cf.Excludes, err = compileFilter(field.Filter.Excludes); err != nil {
				return nil, fmt.Errorf("field %q: excludes: %w", fieldName(field, i), err)
			}
		}
		if field.Sort != nil {
			compiled.SortComparators = append(compiled.SortComparators, SortComparator{
				Field:      i,
				Order:      field.Sort.Order,
				Descending: field.Sort.Direction == Descending,
			})
		}
		compiled.Fields = append(compiled.Fields, cf)
	}

	sort.SliceStable(compiled.SortComparators, func(a, b int) bool {
		return compiled.SortComparators[a].Order < compiled.SortComparators[b].Order
	})

	if settings.ShowDetail {
		compiled.MaxDepth = compiled.MaxGroupDepth + 1
	} else {
		compiled.MaxDepth = max(compiled.MaxGroupDepth, 0)
	}
	return compiled, nil
}

func compileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

func fieldName(f Field, i int) string {
	switch {
	case f.Name != "":
		return f.Name
	case f.ID != "":
		return f.ID
	default:
		return fmt.Sprintf("#%d", i)
	}
}

// IsDetail reports whether depth holds one item per input row. That is
// any depth below the deepest group, so without grouping every row is an
// item of its own whether or not detail is shown.
func (c *CompiledFields) IsDetail(depth int) bool {
	return depth > c.MaxGroupDepth
}

// Sorted reports whether any field is sorted.
func (c *CompiledFields) Sorted() bool {
	return len(c.SortComparators) > 0
}

// Compare orders two rows of resolved values by the sort comparators.
// Empty values come first in ascending order.
func (c *CompiledFields) Compare(a, b []interface{}) int {
	for _, sc := range c.SortComparators {
		cmp := CompareValues(a[sc.Field], b[sc.Field])
		if cmp == 0 {
			continue
		}
		if sc.Descending {
			return -cmp
		}
		return cmp
	}
	return 0
}

// GroupValues returns the key segment values of one input row at depth:
// the stringified values of the fields grouped at that depth.
func (c *CompiledFields) GroupValues(depth int, row []interface{}) []string {
	var values []string
	for i := range c.Fields {
		if c.Fields[i].Group == depth {
			values = append(values, Stringify(c.Fields[i].Expr.Eval(row)))
		}
	}
	return values
}

// Accept applies every field filter to one input row.
func (c *CompiledFields) Accept(row []interface{}) bool {
	for i := range c.Fields {
		if !c.Fields[i].Accept(row) {
			return false
		}
	}
	return true
}
