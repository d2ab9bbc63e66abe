package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestFieldIndex(t *testing.T) {
	index := NewFieldIndex()
	assert.Equal(t, 0, index.Create("a"))
	assert.Equal(t, 1, index.Create("b"))
	assert.Equal(t, 0, index.Create("a"))

	pos, ok := index.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, pos)
	_, ok = index.Get("c")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, index.Names())
	assert.Equal(t, 2, index.Size())
	assert.Equal(t, []interface{}{int64(1), nil}, index.Values(map[string]interface{}{"a": int32(1), "z": "ignored"}))
}

func TestCompile_SharedIndex(t *testing.T) {
	index := NewFieldIndex()
	first, err := Compile(TableSettings{Fields: []Field{
		{Name: "Host", Expression: "${host}"},
		{Name: "Bytes", Expression: "sum(${bytes})"},
	}}, index)
	require.NoError(t, err)
	second, err := Compile(TableSettings{Fields: []Field{
		{Name: "Bytes", Expression: "${bytes}"},
		{Name: "User", Expression: "${user}"},
	}}, index)
	require.NoError(t, err)

	assert.Equal(t, []string{"host", "bytes", "user"}, index.Names())

	row := index.Values(map[string]interface{}{"host": "h", "bytes": int64(5), "user": "u"})
	assert.Equal(t, "h", first.Fields[0].Expr.Eval(row))
	assert.Equal(t, int64(5), second.Fields[0].Expr.Eval(row))
	assert.Equal(t, "u", second.Fields[1].Expr.Eval(row))
}

func TestCompile_Depths(t *testing.T) {
	tests := []struct {
		name          string
		settings      TableSettings
		maxGroupDepth int
		maxDepth      int
		detail        bool
	}{
		{"no grouping no detail", TableSettings{Fields: []Field{{Name: "a", Expression: "${a}"}}}, -1, 0, true},
		{"no grouping with detail", TableSettings{ShowDetail: true, Fields: []Field{{Name: "a", Expression: "${a}"}}}, -1, 0, true},
		{"one group", TableSettings{Fields: []Field{{Name: "a", Expression: "${a}", Group: intPtr(0)}}}, 0, 0, false},
		{"one group with detail", TableSettings{ShowDetail: true, Fields: []Field{{Name: "a", Expression: "${a}", Group: intPtr(0)}}}, 0, 1, true},
		{"two groups", TableSettings{ShowDetail: true, Fields: []Field{
			{Name: "a", Expression: "${a}", Group: intPtr(0)},
			{Name: "b", Expression: "${b}", Group: intPtr(1)},
			{Name: "c", Expression: "count()"},
		}}, 1, 2, true},
		{"two groups no detail", TableSettings{Fields: []Field{
			{Name: "a", Expression: "${a}", Group: intPtr(0)},
			{Name: "b", Expression: "${b}", Group: intPtr(1)},
		}}, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := Compile(tt.settings, NewFieldIndex())
			require.NoError(t, err)
			assert.Equal(t, tt.maxGroupDepth, compiled.MaxGroupDepth)
			assert.Equal(t, tt.maxDepth, compiled.MaxDepth)
			assert.Equal(t, tt.detail, compiled.IsDetail(tt.maxDepth))
			for depth := 0; depth <= tt.maxGroupDepth; depth++ {
				assert.False(t, compiled.IsDetail(depth), "depth %d", depth)
			}
		})
	}
}

func TestCompile_SortComparators(t *testing.T) {
	compiled, err := Compile(TableSettings{Fields: []Field{
		{Name: "a", Expression: "${a}", Sort: &Sort{Order: 2, Direction: Ascending}},
		{Name: "b", Expression: "${b}"},
		{Name: "c", Expression: "${c}", Sort: &Sort{Order: 1, Direction: Descending}},
	}}, NewFieldIndex())
	require.NoError(t, err)

	assert.True(t, compiled.Sorted())
	assert.Equal(t, []SortComparator{
		{Field: 2, Order: 1, Descending: true},
		{Field: 0, Order: 2},
	}, compiled.SortComparators)

	// c descending decides first, then a ascending with empties first.
	assert.Equal(t, -1, compiled.Compare([]interface{}{"x", nil, int64(9)}, []interface{}{"a", nil, int64(1)}))
	assert.Equal(t, -1, compiled.Compare([]interface{}{nil, nil, int64(1)}, []interface{}{"a", nil, int64(1)}))
	assert.Equal(t, 1, compiled.Compare([]interface{}{"b", nil, int64(1)}, []interface{}{"a", nil, int64(1)}))
	assert.Equal(t, 0, compiled.Compare([]interface{}{"a", "x", int64(1)}, []interface{}{"a", "y", int64(1)}))
}

func TestCompile_Filters(t *testing.T) {
	index := NewFieldIndex()
	compiled, err := Compile(TableSettings{Fields: []Field{
		{Name: "host", Expression: "${host}", Filter: &FieldFilter{Includes: "^web", Excludes: "test"}},
		{Name: "n", Expression: "${n}"},
	}}, index)
	require.NoError(t, err)

	row := func(host string) []interface{} {
		return index.Values(map[string]interface{}{"host": host, "n": int64(1)})
	}
	assert.True(t, compiled.Accept(row("web-1")))
	assert.False(t, compiled.Accept(row("db-1")))
	assert.False(t, compiled.Accept(row("web-test")))
}

func TestCompile_GroupValues(t *testing.T) {
	index := NewFieldIndex()
	compiled, err := Compile(TableSettings{Fields: []Field{
		{Name: "a", Expression: "${a}", Group: intPtr(0)},
		{Name: "b", Expression: "${b}", Group: intPtr(1)},
		{Name: "c", Expression: "upper(${c})", Group: intPtr(1)},
	}}, index)
	require.NoError(t, err)

	row := index.Values(map[string]interface{}{"a": int64(1), "b": "x", "c": "y"})
	assert.Equal(t, []string{"1"}, compiled.GroupValues(0, row))
	assert.Equal(t, []string{"x", "Y"}, compiled.GroupValues(1, row))
	assert.Nil(t, compiled.GroupValues(2, row))
}

func TestCompile_ExtractValuesDisabled(t *testing.T) {
	index := NewFieldIndex()
	off := false
	compiled, err := Compile(TableSettings{ExtractValues: &off, Fields: []Field{
		{Name: "a", Expression: "${a}"},
		{Name: "n", Expression: "count()"},
	}}, index)
	require.NoError(t, err)

	assert.Equal(t, 0, index.Size())
	assert.Nil(t, compiled.Fields[0].Expr.Eval([]interface{}{"v"}))
	assert.Equal(t, int64(1), compiled.Fields[1].Expr.Eval(nil))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"bad expression", Field{Name: "x", Expression: "upper("}, `field "x"`},
		{"bad includes", Field{Name: "y", Expression: "${y}", Filter: &FieldFilter{Includes: "("}}, "includes"},
		{"bad excludes", Field{ID: "id-z", Expression: "${z}", Filter: &FieldFilter{Excludes: "["}}, `field "id-z": excludes`},
		{"negative group", Field{Expression: "${g}", Group: intPtr(-1)}, `field "#0": negative group depth`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(TableSettings{Fields: []Field{tt.field}}, NewFieldIndex())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTableSettings_Extract(t *testing.T) {
	on, off := true, false
	assert.True(t, TableSettings{}.Extract())
	assert.True(t, TableSettings{ExtractValues: &on}.Extract())
	assert.False(t, TableSettings{ExtractValues: &off}.Extract())
}
