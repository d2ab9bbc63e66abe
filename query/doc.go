// Package query defines the search wire model and compiles table fields.
//
// The wire model covers what clients send and receive:
//   - Query: a data source, a filter expression and parameters
//   - SearchRequest: a poll for one query key with per component requests
//   - TableSettings and Field: how rows are projected, grouped and sorted
//   - TableResult, FlatResult and SearchResponse: what comes back
//
// # Field Expressions
//
// Each field has an expression computing its value from input columns:
//
//	${name}                          column reference
//	upper(${host})                   scalar function
//	count()                          rows in the group
//	round(sum(${bytes}) / count(), 2) aggregates combined with arithmetic
//	'literal text', 42, true, null   constants
//
// Function names are case-insensitive. Aggregates are count, countUnique,
// sum, average (avg, mean), min, max, first and last; they cannot be
// nested. Non aggregate expressions show the value of the first row of a
// group.
//
// # Compiling
//
// Compile turns TableSettings into CompiledFields:
//
//	index := query.NewFieldIndex()
//	fields, err := query.Compile(settings, index)
//	if err != nil {
//	    return err
//	}
//	row := index.Values(map[string]interface{}{"host": "a", "bytes": 10})
//
// A FieldIndex is shared by every table of a query so that one positional
// input row serves them all.
package query
