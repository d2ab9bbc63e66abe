package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vegasq/parsearch/query"
)

// Table is a component result laid out for printing.
type Table struct {
	Columns []string
	Rows    [][]interface{}
	// Depths holds the group depth of each row for indenting. It is nil
	// for flat results.
	Depths []int
	// Total is the number of rows available, which may exceed len(Rows).
	Total int64
}

// FromResult lays out res. fields names the columns of a table result;
// flat results carry their own structure.
func FromResult(res query.Result, fields []query.Field) (*Table, error) {
	if res == nil {
		return nil, errors.New("no result")
	}
	if msg := res.Err(); msg != "" {
		return nil, fmt.Errorf("component %s: %s", res.Component(), msg)
	}

	switch r := res.(type) {
	case *query.TableResult:
		t := &Table{Columns: columnNames(fields), Total: r.TotalResults}
		for _, row := range r.Rows {
			values := make([]interface{}, len(row.Values))
			for i, v := range row.Values {
				values[i] = v
			}
			t.Rows = append(t.Rows, values)
			t.Depths = append(t.Depths, row.Depth)
		}
		return t, nil
	case *query.FlatResult:
		return &Table{Columns: columnNames(r.Structure), Rows: r.Values, Total: r.Size}, nil
	default:
		return nil, fmt.Errorf("unsupported result %T", res)
	}
}

func columnNames(fields []query.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		switch {
		case f.Name != "":
			names[i] = f.Name
		case f.ID != "":
			names[i] = f.ID
		default:
			names[i] = strings.TrimSpace(f.Expression)
		}
	}
	return names
}

// record maps each column to its value, naming extra values by position
func (t *Table) record(row []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(row))
	for i, v := range row {
		name := fmt.Sprintf("_%d", i)
		if i < len(t.Columns) {
			name = t.Columns[i]
		}
		m[name] = v
	}
	return m
}
