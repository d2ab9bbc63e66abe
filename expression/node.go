// Package expression provides the boolean filter expression model used to
// select rows for a query.
//
// An expression is a tree of operators (AND, OR, NOT) whose leaves are terms
// comparing a field against a value with a condition:
//
//	expr := expression.And(
//	    expression.NewTerm("status", expression.Equals, "ok"),
//	    expression.Not(expression.NewTerm("host", expression.Contains, "test")),
//	)
//	if expression.Evaluate(expr, row, ctx) {
//	    // keep the row
//	}
//
// Disabled nodes are skipped entirely, together with their subtrees.
package expression

import (
	"encoding/json"
	"fmt"
)

// Node is either an *Operator or a *Term.
type Node interface {
	// Enabled reports whether the node takes part in evaluation.
	Enabled() bool
	String() string

	node()
}

// Op is a boolean operator.
type Op string

const (
	OpAnd Op = "AND"
	OpOr  Op = "OR"
	OpNot Op = "NOT"
)

// DocRef identifies a document such as a data source, dictionary or folder.
type DocRef struct {
	Type string `json:"type,omitempty"`
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name,omitempty"`
}

func (d DocRef) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.UUID
}

// Operator combines its enabled children with Op.
type Operator struct {
	Op       Op
	Disabled bool
	Children []Node
}

// Term tests a single field of a row.
type Term struct {
	Field     string
	Condition Condition
	Value     string
	DocRef    *DocRef
	Disabled  bool
}

// And returns an enabled AND operator.
func And(children ...Node) *Operator {
	return &Operator{Op: OpAnd, Children: children}
}

// Or returns an enabled OR operator.
func Or(children ...Node) *Operator {
	return &Operator{Op: OpOr, Children: children}
}

// Not returns an enabled NOT operator.
func Not(children ...Node) *Operator {
	return &Operator{Op: OpNot, Children: children}
}

// NewTerm returns an enabled term.
func NewTerm(field string, condition Condition, value string) *Term {
	return &Term{Field: field, Condition: condition, Value: value}
}

// NewDocRefTerm returns an enabled term referencing a document.
func NewDocRefTerm(field string, condition Condition, ref DocRef) *Term {
	return &Term{Field: field, Condition: condition, DocRef: &ref}
}

func (o *Operator) Enabled() bool { return o != nil && !o.Disabled }
func (t *Term) Enabled() bool     { return t != nil && !t.Disabled }

func (*Operator) node() {}
func (*Term) node()     {}

// EnabledChildren returns the children that take part in evaluation.
func (o *Operator) EnabledChildren() []Node {
	if o == nil {
		return nil
	}
	children := make([]Node, 0, len(o.Children))
	for _, child := range o.Children {
		if child != nil && child.Enabled() {
			children = append(children, child)
		}
	}
	return children
}

type operatorJSON struct {
	Type     string            `json:"type"`
	Op       Op                `json:"op"`
	Children []json.RawMessage `json:"children,omitempty"`
	Enabled  *bool             `json:"enabled,omitempty"`
}

type termJSON struct {
	Type      string    `json:"type"`
	Field     string    `json:"field,omitempty"`
	Condition Condition `json:"condition"`
	Value     string    `json:"value,omitempty"`
	DocRef    *DocRef   `json:"docRef,omitempty"`
	Enabled   *bool     `json:"enabled,omitempty"`
}

const (
	typeOperator = "operator"
	typeTerm     = "term"
)

// MarshalJSON writes the operator with its "operator" type tag.
func (o *Operator) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, 0, len(o.Children))
	for i, child := range o.Children {
		data, err := json.Marshal(child)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, data)
	}
	enabled := !o.Disabled
	return json.Marshal(operatorJSON{
		Type:     typeOperator,
		Op:       o.Op,
		Children: children,
		Enabled:  &enabled,
	})
}

// UnmarshalJSON reads an operator. A missing op means AND and a missing
// enabled flag means enabled.
func (o *Operator) UnmarshalJSON(data []byte) error {
	var aux operatorJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Type != "" && aux.Type != typeOperator {
		return fmt.Errorf("expected expression type %q, got %q", typeOperator, aux.Type)
	}

	op := aux.Op
	if op == "" {
		op = OpAnd
	}
	switch op {
	case OpAnd, OpOr, OpNot:
	default:
		return fmt.Errorf("unknown operator %q", aux.Op)
	}

	var children []Node
	for i, raw := range aux.Children {
		child, err := UnmarshalNode(raw)
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, child)
	}

	*o = Operator{
		Op:       op,
		Disabled: aux.Enabled != nil && !*aux.Enabled,
		Children: children,
	}
	return nil
}

// MarshalJSON writes the term with its "term" type tag.
func (t *Term) MarshalJSON() ([]byte, error) {
	enabled := !t.Disabled
	return json.Marshal(termJSON{
		Type:      typeTerm,
		Field:     t.Field,
		Condition: t.Condition,
		Value:     t.Value,
		DocRef:    t.DocRef,
		Enabled:   &enabled,
	})
}

// UnmarshalJSON reads a term. A missing enabled flag means enabled.
func (t *Term) UnmarshalJSON(data []byte) error {
	var aux termJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Type != "" && aux.Type != typeTerm {
		return fmt.Errorf("expected expression type %q, got %q", typeTerm, aux.Type)
	}
	condition, ok := ParseCondition(string(aux.Condition))
	if !ok {
		return fmt.Errorf("unknown condition %q", aux.Condition)
	}

	*t = Term{
		Field:     aux.Field,
		Condition: condition,
		Value:     aux.Value,
		DocRef:    aux.DocRef,
		Disabled:  aux.Enabled != nil && !*aux.Enabled,
	}
	return nil
}

// UnmarshalNode decodes a node using its "type" discriminator.
func UnmarshalNode(data []byte) (Node, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case typeOperator:
		op := &Operator{}
		if err := op.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return op, nil
	case typeTerm:
		term := &Term{}
		if err := term.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return term, nil
	default:
		return nil, fmt.Errorf("unknown expression type %q", probe.Type)
	}
}
