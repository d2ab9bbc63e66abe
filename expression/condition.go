package expression

import "strings"

// Condition is the comparison a term applies.
type Condition string

const (
	Equals               Condition = "EQUALS"
	Contains             Condition = "CONTAINS"
	In                   Condition = "IN"
	InDictionary         Condition = "IN_DICTIONARY"
	InFolder             Condition = "IN_FOLDER"
	Between              Condition = "BETWEEN"
	GreaterThan          Condition = "GREATER_THAN"
	GreaterThanOrEqualTo Condition = "GREATER_THAN_OR_EQUAL_TO"
	LessThan             Condition = "LESS_THAN"
	LessThanOrEqualTo    Condition = "LESS_THAN_OR_EQUAL_TO"
	IsDocRef             Condition = "IS_DOC_REF"
)

// Conditions lists every condition in declaration order.
var Conditions = []Condition{
	Equals, Contains, In, InDictionary, InFolder, Between,
	GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo, IsDocRef,
}

var conditionSymbols = map[Condition]string{
	Equals:               "=",
	Contains:             "contains",
	In:                   "in",
	InDictionary:         "in dictionary",
	InFolder:             "in folder",
	Between:              "between",
	GreaterThan:          ">",
	GreaterThanOrEqualTo: ">=",
	LessThan:             "<",
	LessThanOrEqualTo:    "<=",
	IsDocRef:             "is",
}

// ParseCondition looks a condition up by its upper case name.
func ParseCondition(s string) (Condition, bool) {
	c := Condition(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := conditionSymbols[c]; ok {
		return c, true
	}
	return "", false
}

// Symbol returns the display form used when rendering expressions.
func (c Condition) Symbol() string {
	if s, ok := conditionSymbols[c]; ok {
		return s
	}
	return strings.ToLower(string(c))
}

// FieldType is the statically known type of a queryable field.
type FieldType string

const (
	TypeText    FieldType = "TEXT"
	TypeBoolean FieldType = "BOOLEAN"
	TypeNumeric FieldType = "NUMERIC"
	TypeDate    FieldType = "DATE"
	TypeID      FieldType = "ID"
	TypeDocRef  FieldType = "DOC_REF"
)

var defaultConditions = map[FieldType][]Condition{
	TypeText:    {Equals, Contains, In, InDictionary},
	TypeBoolean: {Equals},
	TypeNumeric: {Equals, In, Between, GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo},
	TypeDate:    {Equals, Between, GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo},
	TypeID:      {Equals, In, Between, GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo},
	TypeDocRef:  {IsDocRef, InFolder},
}

// DefaultConditions returns the conditions a field type supports unless a
// field overrides them.
func DefaultConditions(t FieldType) []Condition {
	return append([]Condition(nil), defaultConditions[t]...)
}

// FieldDescriptor describes one queryable field of a data source.
type FieldDescriptor struct {
	Name       string      `json:"name"`
	Type       FieldType   `json:"type"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Field returns a descriptor using the default conditions of t.
func Field(name string, t FieldType) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t, Conditions: DefaultConditions(t)}
}

// Supports reports whether the field accepts c.
func (f FieldDescriptor) Supports(c Condition) bool {
	conditions := f.Conditions
	if len(conditions) == 0 {
		conditions = defaultConditions[f.Type]
	}
	for _, supported := range conditions {
		if supported == c {
			return true
		}
	}
	return false
}

// Registry is the fixed list of fields a data source exposes.
type Registry struct {
	order  []string
	fields map[string]FieldDescriptor
}

// NewRegistry builds a registry. Later descriptors replace earlier ones with
// the same name.
func NewRegistry(fields ...FieldDescriptor) *Registry {
	r := &Registry{fields: make(map[string]FieldDescriptor, len(fields))}
	for _, f := range fields {
		if _, exists := r.fields[f.Name]; !exists {
			r.order = append(r.order, f.Name)
		}
		r.fields[f.Name] = f
	}
	return r
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (FieldDescriptor, bool) {
	if r == nil {
		return FieldDescriptor{}, false
	}
	f, ok := r.fields[name]
	return f, ok
}

// Fields returns all descriptors in registration order.
func (r *Registry) Fields() []FieldDescriptor {
	if r == nil {
		return nil
	}
	out := make([]FieldDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.fields[name])
	}
	return out
}

// Len returns the number of fields.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
