package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
)

// Row is one line of a table result.
type Row struct {
	GroupKey string   `json:"groupKey,omitempty"`
	Depth    int      `json:"depth"`
	Values   []string `json:"values"`
}

func (r Row) equal(o Row) bool {
	return r.GroupKey == o.GroupKey && r.Depth == o.Depth && slices.Equal(r.Values, o.Values)
}

// Result is a TableResult or a FlatResult.
type Result interface {
	Component() string
	// Err is the component failure, empty when the component succeeded.
	Err() string
	// Equal compares results structurally.
	Equal(other Result) bool

	result()
}

// TableResult is a page of formatted rows.
type TableResult struct {
	ComponentID  string      `json:"componentId"`
	Rows         []Row       `json:"rows"`
	ResultRange  OffsetRange `json:"resultRange"`
	TotalResults int64       `json:"totalResults"`
	Error        string      `json:"error,omitempty"`
}

// FlatResult holds every group expanded, with raw values.
type FlatResult struct {
	ComponentID string          `json:"componentId"`
	Structure   []Field         `json:"structure"`
	Values      [][]interface{} `json:"values"`
	Size        int64           `json:"size"`
	Error       string          `json:"error,omitempty"`
}

func (r *TableResult) Component() string { return r.ComponentID }
func (r *FlatResult) Component() string  { return r.ComponentID }
func (r *TableResult) Err() string       { return r.Error }
func (r *FlatResult) Err() string        { return r.Error }
func (*TableResult) result()            {}
func (*FlatResult) result()             {}

func (r *TableResult) Equal(other Result) bool {
	o, ok := other.(*TableResult)
	if !ok || r == nil || o == nil {
		return ok && r == o
	}
	return r.ComponentID == o.ComponentID &&
		r.ResultRange == o.ResultRange &&
		r.TotalResults == o.TotalResults &&
		r.Error == o.Error &&
		slices.EqualFunc(r.Rows, o.Rows, Row.equal)
}

func (r *FlatResult) Equal(other Result) bool {
	o, ok := other.(*FlatResult)
	if !ok || r == nil || o == nil {
		return ok && r == o
	}
	return r.ComponentID == o.ComponentID &&
		r.Size == o.Size &&
		r.Error == o.Error &&
		reflect.DeepEqual(r.Structure, o.Structure) &&
		reflect.DeepEqual(r.Values, o.Values)
}

const (
	typeTable = "table"
	typeFlat  = "flat"
)

func (r *TableResult) MarshalJSON() ([]byte, error) {
	type plain TableResult
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{typeTable, (*plain)(r)})
}

func (r *FlatResult) MarshalJSON() ([]byte, error) {
	type plain FlatResult
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{typeFlat, (*plain)(r)})
}

// UnmarshalResult decodes a result using its "type" discriminator.
func UnmarshalResult(data []byte) (Result, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case typeTable:
		type plain TableResult
		var r plain
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		tr := TableResult(r)
		return &tr, nil
	case typeFlat:
		type plain FlatResult
		var r plain
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		fr := FlatResult(r)
		return &fr, nil
	default:
		return nil, fmt.Errorf("unknown result type %q", probe.Type)
	}
}

// SearchResponse answers a SearchRequest.
type SearchResponse struct {
	// Key is set when the session key was generated for the request.
	Key        *QueryKey `json:"key,omitempty"`
	Highlights []string  `json:"highlights,omitempty"`
	Results    []Result  `json:"results,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	Complete   bool      `json:"complete"`
}

func (r *SearchResponse) UnmarshalJSON(data []byte) error {
	var aux struct {
		Key        *QueryKey         `json:"key"`
		Highlights []string          `json:"highlights"`
		Results    []json.RawMessage `json:"results"`
		Errors     []string          `json:"errors"`
		Complete   bool              `json:"complete"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var results []Result
	for i, raw := range aux.Results {
		res, err := UnmarshalResult(raw)
		if err != nil {
			return fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, res)
	}

	*r = SearchResponse{
		Key:        aux.Key,
		Highlights: aux.Highlights,
		Results:    results,
		Errors:     aux.Errors,
		Complete:   aux.Complete,
	}
	return nil
}
