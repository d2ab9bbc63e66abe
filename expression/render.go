package expression

import (
	"strings"
)

// String renders the operator and its enabled children, for example
// "AND {status = ok, NOT {host contains test}}". A disabled operator
// renders as an empty string.
func (o *Operator) String() string {
	if !o.Enabled() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(string(o.Op))
	sb.WriteString(" {")
	i := 0
	for _, child := range o.EnabledChildren() {
		s := child.String()
		if s == "" {
			continue
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s)
		i++
	}
	sb.WriteString("}")
	return sb.String()
}

// String renders the term as "field condition value".
func (t *Term) String() string {
	if !t.Enabled() {
		return ""
	}
	value := t.Value
	if t.DocRef != nil {
		value = t.DocRef.String()
	}
	return t.Field + " " + t.Condition.Symbol() + " " + value
}

// Fields returns the names of fields referenced by enabled terms, in the
// order they first appear.
func Fields(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	walkTerms(n, func(t *Term) {
		if t.Field != "" && !seen[t.Field] {
			seen[t.Field] = true
			names = append(names, t.Field)
		}
	})
	return names
}

// Highlights returns the values of enabled terms that match text directly,
// for clients that highlight search hits.
func Highlights(n Node) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	walkTerms(n, func(t *Term) {
		switch t.Condition {
		case Equals, Contains:
			add(t.Value)
		case In:
			for _, v := range splitList(t.Value) {
				add(v)
			}
		}
	})
	return out
}

// walkTerms visits every enabled term under enabled operators. Terms under
// a NOT are skipped since they describe what must not match.
func walkTerms(n Node, fn func(*Term)) {
	if n == nil || !n.Enabled() {
		return
	}
	switch node := n.(type) {
	case *Operator:
		if node.Op == OpNot {
			return
		}
		for _, child := range node.EnabledChildren() {
			walkTerms(child, fn)
		}
	case *Term:
		fn(node)
	}
}

// ReplaceParams returns a copy of n with every "${key}" in term values
// replaced by params[key]. Unknown parameters are left untouched.
func ReplaceParams(n Node, params map[string]string) Node {
	if n == nil {
		return nil
	}
	switch node := n.(type) {
	case *Operator:
		return ReplaceOperatorParams(node, params)
	case *Term:
		copied := *node
		copied.Value = replaceParams(node.Value, params)
		return &copied
	default:
		return n
	}
}

// ReplaceOperatorParams is ReplaceParams for a root operator.
func ReplaceOperatorParams(o *Operator, params map[string]string) *Operator {
	if o == nil {
		return nil
	}
	copied := &Operator{Op: o.Op, Disabled: o.Disabled, Children: make([]Node, 0, len(o.Children))}
	for _, child := range o.Children {
		copied.Children = append(copied.Children, ReplaceParams(child, params))
	}
	return copied
}

func replaceParams(value string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(value, "${") {
		return value
	}
	var sb strings.Builder
	for {
		start := strings.Index(value, "${")
		if start < 0 {
			break
		}
		end := strings.Index(value[start:], "}")
		if end < 0 {
			break
		}
		end += start
		key := value[start+2 : end]
		sb.WriteString(value[:start])
		if v, ok := params[key]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(value[start : end+1])
		}
		value = value[end+1:]
	}
	sb.WriteString(value)
	return sb.String()
}
