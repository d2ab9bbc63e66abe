package query

import (
	"github.com/vegasq/parsearch/expression"
)

// DocRef identifies a data source or other document.
type DocRef = expression.DocRef

// QueryKey identifies a query session across polls.
type QueryKey struct {
	UUID string `json:"uuid"`
}

func (k QueryKey) String() string { return k.UUID }

// Param is a named substitution for "${key}" placeholders in term values.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Query selects rows from a data source.
type Query struct {
	DataSource DocRef               `json:"dataSource"`
	Expression *expression.Operator `json:"expression,omitempty"`
	Params     []Param              `json:"params,omitempty"`
}

// ParamMap returns the query parameters keyed by name.
func (q *Query) ParamMap() map[string]string {
	if q == nil || len(q.Params) == 0 {
		return nil
	}
	m := make(map[string]string, len(q.Params))
	for _, p := range q.Params {
		m[p.Key] = p.Value
	}
	return m
}

// ResolvedExpression returns the expression with parameters substituted.
func (q *Query) ResolvedExpression() *expression.Operator {
	if q == nil {
		return nil
	}
	return expression.ReplaceOperatorParams(q.Expression, q.ParamMap())
}

// SearchRequest is a single poll against a query session.
type SearchRequest struct {
	Key            QueryKey        `json:"key"`
	Query          *Query          `json:"query,omitempty"`
	ResultRequests []ResultRequest `json:"resultRequests,omitempty"`
	// DateTimeLocale is the IANA time zone used for relative dates and
	// LOCAL formatting.
	DateTimeLocale string `json:"dateTimeLocale,omitempty"`
	Incremental    bool   `json:"incremental"`
	// Timeout is how long, in milliseconds, a non incremental request waits
	// for the search to complete.
	Timeout *int64 `json:"timeout,omitempty"`
}

// Fetch controls which results a poll returns for a component.
type Fetch string

const (
	FetchAll     Fetch = "ALL"
	FetchChanges Fetch = "CHANGES"
	FetchNone    Fetch = "NONE"
)

// ResultStyle selects the shape of a component result.
type ResultStyle string

const (
	StyleTable ResultStyle = "TABLE"
	StyleFlat  ResultStyle = "FLAT"
)

// OffsetRange is a window over result rows.
type OffsetRange struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// ResultRequest asks for one component of a search.
type ResultRequest struct {
	ComponentID    string          `json:"componentId"`
	Fetch          Fetch           `json:"fetch,omitempty"`
	ResultStyle    ResultStyle     `json:"resultStyle,omitempty"`
	RequestedRange *OffsetRange    `json:"requestedRange,omitempty"`
	OpenGroups     []string        `json:"openGroups,omitempty"`
	Mappings       []TableSettings `json:"mappings,omitempty"`
}

// FetchMode returns Fetch, defaulting to ALL.
func (r ResultRequest) FetchMode() Fetch {
	if r.Fetch == "" {
		return FetchAll
	}
	return r.Fetch
}

// Style returns ResultStyle, defaulting to TABLE.
func (r ResultRequest) Style() ResultStyle {
	if r.ResultStyle == "" {
		return StyleTable
	}
	return r.ResultStyle
}

// TableSettings describes one table projection of the rows.
type TableSettings struct {
	QueryID       string  `json:"queryId,omitempty"`
	Fields        []Field `json:"fields,omitempty"`
	ExtractValues *bool   `json:"extractValues,omitempty"`
	ShowDetail    bool    `json:"showDetail,omitempty"`
	MaxResults    []int   `json:"maxResults,omitempty"`
}

// Extract reports whether input values are extracted. It defaults to true.
func (t TableSettings) Extract() bool {
	return t.ExtractValues == nil || *t.ExtractValues
}

// SortDirection orders a sorted field.
type SortDirection string

const (
	Ascending  SortDirection = "ASCENDING"
	Descending SortDirection = "DESCENDING"
)

// Sort places a field in the sort order. Lower orders sort first.
type Sort struct {
	Order     int           `json:"order"`
	Direction SortDirection `json:"direction,omitempty"`
}

// FieldFilter keeps rows whose field value matches Includes and does not
// match Excludes. Both are regular expressions.
type FieldFilter struct {
	Includes string `json:"includes,omitempty"`
	Excludes string `json:"excludes,omitempty"`
}

// FormatType selects a formatter.
type FormatType string

const (
	FormatGeneral  FormatType = "GENERAL"
	FormatText     FormatType = "TEXT"
	FormatNumber   FormatType = "NUMBER"
	FormatDateTime FormatType = "DATE_TIME"
)

type NumberFormat struct {
	DecimalPlaces int  `json:"decimalPlaces"`
	UseSeparator  bool `json:"useSeparator"`
}

// TimeZoneUse says how a TimeZone is resolved.
type TimeZoneUse string

const (
	ZoneUTC    TimeZoneUse = "UTC"
	ZoneLocal  TimeZoneUse = "LOCAL"
	ZoneID     TimeZoneUse = "ID"
	ZoneOffset TimeZoneUse = "OFFSET"
)

type TimeZone struct {
	Use           TimeZoneUse `json:"use,omitempty"`
	ID            string      `json:"id,omitempty"`
	OffsetHours   int         `json:"offsetHours,omitempty"`
	OffsetMinutes int         `json:"offsetMinutes,omitempty"`
}

// DateTimeFormat uses Java style patterns such as "yyyy-MM-dd HH:mm".
type DateTimeFormat struct {
	Pattern  string    `json:"pattern,omitempty"`
	TimeZone *TimeZone `json:"timeZone,omitempty"`
}

type Format struct {
	Type           FormatType      `json:"type,omitempty"`
	NumberFormat   *NumberFormat   `json:"numberFormat,omitempty"`
	DateTimeFormat *DateTimeFormat `json:"dateTimeFormat,omitempty"`
}

// Field is one column of a table.
type Field struct {
	ID         string       `json:"id,omitempty"`
	Name       string       `json:"name"`
	Expression string       `json:"expression,omitempty"`
	Sort       *Sort        `json:"sort,omitempty"`
	Group      *int         `json:"group,omitempty"`
	Filter     *FieldFilter `json:"filter,omitempty"`
	Format     *Format      `json:"format,omitempty"`
}
