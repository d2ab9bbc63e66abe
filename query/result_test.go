package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/parsearch/expression"
)

func sampleTable() *TableResult {
	return &TableResult{
		ComponentID:  "table-1",
		Rows:         []Row{{GroupKey: "/a", Depth: 0, Values: []string{"a", "2"}}, {Depth: 1, Values: []string{"a", "1"}}},
		ResultRange:  OffsetRange{Offset: 0, Length: 2},
		TotalResults: 7,
	}
}

func TestTableResult_Equal(t *testing.T) {
	base := sampleTable()
	assert.True(t, base.Equal(sampleTable()))

	tests := []struct {
		name   string
		modify func(r *TableResult)
	}{
		{"component", func(r *TableResult) { r.ComponentID = "other" }},
		{"row value", func(r *TableResult) { r.Rows[1].Values[1] = "2" }},
		{"row key", func(r *TableResult) { r.Rows[0].GroupKey = "/b" }},
		{"row depth", func(r *TableResult) { r.Rows[1].Depth = 2 }},
		{"fewer rows", func(r *TableResult) { r.Rows = r.Rows[:1] }},
		{"range", func(r *TableResult) { r.ResultRange.Offset = 1 }},
		{"total", func(r *TableResult) { r.TotalResults = 8 }},
		{"error", func(r *TableResult) { r.Error = "boom" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := sampleTable()
			tt.modify(changed)
			assert.False(t, base.Equal(changed))
			assert.False(t, changed.Equal(base))
		})
	}

	assert.False(t, base.Equal(&FlatResult{ComponentID: "table-1"}))
	assert.False(t, base.Equal(nil))
}

func TestFlatResult_Equal(t *testing.T) {
	newFlat := func() *FlatResult {
		return &FlatResult{
			ComponentID: "flat",
			Structure:   []Field{{Name: ":Key"}, {Name: "n"}},
			Values:      [][]interface{}{{"/a", int64(1)}, {"/b", nil}},
			Size:        2,
		}
	}
	assert.True(t, newFlat().Equal(newFlat()))

	changed := newFlat()
	changed.Values[1][1] = int64(2)
	assert.False(t, newFlat().Equal(changed))

	changed = newFlat()
	changed.Structure[1].Name = "m"
	assert.False(t, newFlat().Equal(changed))

	assert.False(t, newFlat().Equal(sampleTable()))
}

func TestSearchResponse_JSON(t *testing.T) {
	resp := SearchResponse{
		Highlights: []string{"alice"},
		Results: []Result{
			sampleTable(),
			&FlatResult{ComponentID: "flat", Structure: []Field{{Name: "n"}}, Values: [][]interface{}{{"x"}}, Size: 1},
		},
		Errors:   []string{"source failed"},
		Complete: true,
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"table"`)
	assert.Contains(t, string(data), `"type":"flat"`)
	assert.Contains(t, string(data), `"totalResults":7`)

	var decoded SearchResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, resp.Highlights, decoded.Highlights)
	assert.Equal(t, resp.Errors, decoded.Errors)
	assert.True(t, decoded.Complete)
	require.Len(t, decoded.Results, 2)
	assert.True(t, resp.Results[0].Equal(decoded.Results[0]))
	assert.True(t, resp.Results[1].Equal(decoded.Results[1]))
}

func TestUnmarshalResult_UnknownType(t *testing.T) {
	_, err := UnmarshalResult([]byte(`{"type":"chart"}`))
	assert.Error(t, err)
}

func TestSearchRequest_JSON(t *testing.T) {
	input := `{
		"key": {"uuid": "q-1"},
		"query": {
			"dataSource": {"type": "Parquet", "uuid": "ds-1", "name": "events"},
			"expression": {"type": "operator", "op": "AND", "children": [
				{"type": "term", "field": "user", "condition": "EQUALS", "value": "${who}"}
			]},
			"params": [{"key": "who", "value": "alice"}]
		},
		"resultRequests": [{
			"componentId": "table-1",
			"fetch": "CHANGES",
			"requestedRange": {"offset": 10, "length": 20},
			"openGroups": ["/alice"],
			"mappings": [{
				"queryId": "q",
				"showDetail": true,
				"maxResults": [100, 10],
				"fields": [{
					"id": "f1", "name": "User", "expression": "${user}",
					"sort": {"order": 0, "direction": "DESCENDING"},
					"group": 0,
					"filter": {"includes": "a"},
					"format": {"type": "DATE_TIME", "dateTimeFormat": {"pattern": "yyyy", "timeZone": {"use": "OFFSET", "offsetHours": 2}}}
				}]
			}]
		}],
		"dateTimeLocale": "Europe/London",
		"incremental": true,
		"timeout": 500
	}`

	var req SearchRequest
	require.NoError(t, json.Unmarshal([]byte(input), &req))

	assert.Equal(t, "q-1", req.Key.UUID)
	assert.Equal(t, "events", req.Query.DataSource.Name)
	assert.Equal(t, map[string]string{"who": "alice"}, req.Query.ParamMap())
	assert.Equal(t, "AND {user = alice}", req.Query.ResolvedExpression().String())
	assert.True(t, req.Incremental)
	require.NotNil(t, req.Timeout)
	assert.Equal(t, int64(500), *req.Timeout)

	rr := req.ResultRequests[0]
	assert.Equal(t, FetchChanges, rr.FetchMode())
	assert.Equal(t, StyleTable, rr.Style())
	assert.Equal(t, &OffsetRange{Offset: 10, Length: 20}, rr.RequestedRange)
	assert.Equal(t, []string{"/alice"}, rr.OpenGroups)

	settings := rr.Mappings[0]
	assert.True(t, settings.Extract())
	assert.Equal(t, []int{100, 10}, settings.MaxResults)
	field := settings.Fields[0]
	assert.Equal(t, 0, *field.Group)
	assert.Equal(t, Descending, field.Sort.Direction)
	assert.Equal(t, FormatDateTime, field.Format.Type)
	assert.Equal(t, ZoneOffset, field.Format.DateTimeFormat.TimeZone.Use)
	assert.Equal(t, 2, field.Format.DateTimeFormat.TimeZone.OffsetHours)
}

func TestResultRequest_Defaults(t *testing.T) {
	rr := ResultRequest{}
	assert.Equal(t, FetchAll, rr.FetchMode())
	assert.Equal(t, StyleTable, rr.Style())

	var q *Query
	assert.Nil(t, q.ParamMap())
	assert.Nil(t, q.ResolvedExpression())
	assert.Nil(t, (&Query{}).ResolvedExpression())
	assert.IsType(t, &expression.Operator{}, (&Query{Expression: expression.And()}).ResolvedExpression())
}
