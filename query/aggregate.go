package query

import (
	"strings"
)

// Generator accumulates the value of one field over the rows of a group.
// Generators are not safe for concurrent use; Clone gives an independent
// copy that can be handed to readers.
type Generator interface {
	// Set folds one input row into the state.
	Set(row []interface{})
	// Eval returns the current value.
	Eval() interface{}
	// Merge folds the state of another generator of the same expression.
	Merge(other Generator)
	Clone() Generator
}

// Aggregate describes an aggregate function.
type Aggregate struct {
	Name     string
	MinArity int
	MaxArity int
	New      func(arg Expr) Generator
}

var aggregates = map[string]*Aggregate{}

func registerAggregate(a *Aggregate, aliases ...string) {
	aggregates[strings.ToUpper(a.Name)] = a
	for _, alias := range aliases {
		aggregates[strings.ToUpper(alias)] = a
	}
}

// GetAggregate looks up an aggregate function (case-insensitive)
func GetAggregate(name string) (*Aggregate, bool) {
	a, ok := aggregates[strings.ToUpper(name)]
	return a, ok
}

func init() {
	registerAggregate(&Aggregate{Name: "count", MinArity: 0, MaxArity: 1, New: func(arg Expr) Generator {
		return &countGen{arg: arg}
	}})
	registerAggregate(&Aggregate{Name: "countUnique", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &countUniqueGen{arg: arg, seen: make(map[string]struct{})}
	}})
	registerAggregate(&Aggregate{Name: "sum", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &sumGen{arg: arg}
	}})
	registerAggregate(&Aggregate{Name: "average", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &averageGen{arg: arg}
	}}, "avg", "mean")
	registerAggregate(&Aggregate{Name: "min", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &extremeGen{arg: arg, keep: -1}
	}})
	registerAggregate(&Aggregate{Name: "max", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &extremeGen{arg: arg, keep: 1}
	}})
	registerAggregate(&Aggregate{Name: "first", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &valueGen{expr: arg}
	}})
	registerAggregate(&Aggregate{Name: "last", MinArity: 1, MaxArity: 1, New: func(arg Expr) Generator {
		return &lastGen{arg: arg}
	}})
}

// valueGen keeps the value of the first row it sees. Non aggregate
// expressions use it so a group shows the value of its first row.
type valueGen struct {
	expr  Expr
	value interface{}
	set   bool
}

func (g *valueGen) Set(row []interface{}) {
	if !g.set {
		g.value = g.expr.Eval(row)
		g.set = true
	}
}

func (g *valueGen) Eval() interface{} { return g.value }

func (g *valueGen) Merge(other Generator) {
	o := other.(*valueGen)
	if !g.set && o.set {
		g.value = o.value
		g.set = true
	}
}

func (g *valueGen) Clone() Generator {
	c := *g
	return &c
}

// callGen applies a scalar function over generator arguments, for
// expressions such as round(sum(${x}) / count())
type callGen struct {
	call     *call
	children []Generator
}

func (g *callGen) Set(row []interface{}) {
	for _, child := range g.children {
		child.Set(row)
	}
}

func (g *callGen) Eval() interface{} {
	args := make([]interface{}, len(g.children))
	for i, child := range g.children {
		args[i] = child.Eval()
	}
	return g.call.apply(args)
}

func (g *callGen) Merge(other Generator) {
	o := other.(*callGen)
	for i, child := range g.children {
		child.Merge(o.children[i])
	}
}

func (g *callGen) Clone() Generator {
	children := make([]Generator, len(g.children))
	for i, child := range g.children {
		children[i] = child.Clone()
	}
	return &callGen{call: g.call, children: children}
}

// countGen counts rows, or non-null values when given an argument
type countGen struct {
	arg   Expr
	count int64
}

func (g *countGen) Set(row []interface{}) {
	if g.arg == nil || g.arg.Eval(row) != nil {
		g.count++
	}
}

func (g *countGen) Eval() interface{}     { return g.count }
func (g *countGen) Merge(other Generator) { g.count += other.(*countGen).count }

func (g *countGen) Clone() Generator {
	c := *g
	return &c
}

// countUniqueGen counts distinct non-null values
type countUniqueGen struct {
	arg  Expr
	seen map[string]struct{}
}

func (g *countUniqueGen) Set(row []interface{}) {
	if v := g.arg.Eval(row); v != nil {
		g.seen[Stringify(v)] = struct{}{}
	}
}

func (g *countUniqueGen) Eval() interface{} { return int64(len(g.seen)) }

func (g *countUniqueGen) Merge(other Generator) {
	for k := range other.(*countUniqueGen).seen {
		g.seen[k] = struct{}{}
	}
}

func (g *countUniqueGen) Clone() Generator {
	seen := make(map[string]struct{}, len(g.seen))
	for k := range g.seen {
		seen[k] = struct{}{}
	}
	return &countUniqueGen{arg: g.arg, seen: seen}
}

// sumGen adds numeric values, ignoring anything that is not a number
type sumGen struct {
	arg Expr
	sum float64
	any bool
}

func (g *sumGen) Set(row []interface{}) {
	if n, err := valueToNumber(g.arg.Eval(row)); err == nil {
		g.sum += n
		g.any = true
	}
}

func (g *sumGen) Eval() interface{} {
	if !g.any {
		return nil
	}
	return g.sum
}

func (g *sumGen) Merge(other Generator) {
	o := other.(*sumGen)
	g.sum += o.sum
	g.any = g.any || o.any
}

func (g *sumGen) Clone() Generator {
	c := *g
	return &c
}

// averageGen is the mean of numeric values
type averageGen struct {
	arg   Expr
	sum   float64
	count int64
}

func (g *averageGen) Set(row []interface{}) {
	if n, err := valueToNumber(g.arg.Eval(row)); err == nil {
		g.sum += n
		g.count++
	}
}

func (g *averageGen) Eval() interface{} {
	if g.count == 0 {
		return nil
	}
	return g.sum / float64(g.count)
}

func (g *averageGen) Merge(other Generator) {
	o := other.(*averageGen)
	g.sum += o.sum
	g.count += o.count
}

func (g *averageGen) Clone() Generator {
	c := *g
	return &c
}

// extremeGen keeps the smallest (keep -1) or largest (keep 1) value
type extremeGen struct {
	arg   Expr
	keep  int
	value interface{}
}

func (g *extremeGen) offer(v interface{}) {
	if v == nil {
		return
	}
	if g.value == nil || CompareValues(v, g.value) == g.keep {
		g.value = v
	}
}

func (g *extremeGen) Set(row []interface{}) { g.offer(g.arg.Eval(row)) }
func (g *extremeGen) Eval() interface{}     { return g.value }
func (g *extremeGen) Merge(other Generator) { g.offer(other.(*extremeGen).value) }

func (g *extremeGen) Clone() Generator {
	c := *g
	return &c
}

// lastGen keeps the value of the most recent row
type lastGen struct {
	arg   Expr
	value interface{}
	set   bool
}

func (g *lastGen) Set(row []interface{}) {
	g.value = g.arg.Eval(row)
	g.set = true
}

func (g *lastGen) Eval() interface{} { return g.value }

func (g *lastGen) Merge(other Generator) {
	if o := other.(*lastGen); o.set {
		g.value = o.value
		g.set = true
	}
}

func (g *lastGen) Clone() Generator {
	c := *g
	return &c
}
