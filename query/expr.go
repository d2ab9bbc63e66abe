package query

import (
	"strconv"
	"strings"
)

// Expr is a compiled field expression.
type Expr interface {
	// Eval computes the expression for a single input row. Aggregates see
	// just that row.
	Eval(row []interface{}) interface{}
	// NewGenerator returns empty accumulation state for the expression.
	NewGenerator() Generator
	// HasAggregate reports whether an aggregate function appears anywhere
	// in the expression.
	HasAggregate() bool
	String() string
}

// fieldRef reads a positional input column. A negative index reads null.
type fieldRef struct {
	name  string
	index int
}

func (f *fieldRef) Eval(row []interface{}) interface{} {
	if f.index < 0 || f.index >= len(row) {
		return nil
	}
	return row[f.index]
}

func (f *fieldRef) NewGenerator() Generator { return &valueGen{expr: f} }
func (f *fieldRef) HasAggregate() bool      { return false }
func (f *fieldRef) String() string          { return "${" + f.name + "}" }

// literal is a constant
type literal struct {
	value interface{}
}

func (l *literal) Eval([]interface{}) interface{} { return l.value }
func (l *literal) NewGenerator() Generator        { return &valueGen{expr: l, value: l.value, set: true} }
func (l *literal) HasAggregate() bool             { return false }

func (l *literal) String() string {
	switch v := l.value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	default:
		return Stringify(v)
	}
}

// call applies a scalar function to its arguments
type call struct {
	fn        Function
	args      []Expr
	aggregate bool
}

func (c *call) Eval(row []interface{}) interface{} {
	args := make([]interface{}, len(c.args))
	for i, arg := range c.args {
		args[i] = arg.Eval(row)
	}
	return c.apply(args)
}

// apply evaluates the function. Failures yield null.
func (c *call) apply(args []interface{}) interface{} {
	v, err := c.fn.Evaluate(args)
	if err != nil {
		return nil
	}
	return Normalize(v)
}

func (c *call) NewGenerator() Generator {
	if !c.aggregate {
		return &valueGen{expr: c}
	}
	children := make([]Generator, len(c.args))
	for i, arg := range c.args {
		children[i] = arg.NewGenerator()
	}
	return &callGen{call: c, children: children}
}

func (c *call) HasAggregate() bool { return c.aggregate }

func (c *call) String() string {
	return strings.ToLower(c.fn.Name()) + "(" + joinExprs(c.args) + ")"
}

// aggregateCall folds every row of a group into one value
type aggregateCall struct {
	fn  *Aggregate
	arg Expr
}

func (a *aggregateCall) Eval(row []interface{}) interface{} {
	g := a.NewGenerator()
	g.Set(row)
	return g.Eval()
}

func (a *aggregateCall) NewGenerator() Generator { return a.fn.New(a.arg) }
func (a *aggregateCall) HasAggregate() bool      { return true }

func (a *aggregateCall) String() string {
	if a.arg == nil {
		return a.fn.Name + "()"
	}
	return a.fn.Name + "(" + a.arg.String() + ")"
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
