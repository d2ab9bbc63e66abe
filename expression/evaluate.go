package expression

import (
	"strings"
	"time"
)

// FolderResolver decides whether a document lives inside a folder.
type FolderResolver interface {
	InFolder(folderUUID, docUUID string) bool
}

// Context carries everything a term needs besides the row itself.
type Context struct {
	// Fields is the static field registry of the data source. Terms on
	// fields missing from it never match.
	Fields *Registry
	// Now anchors relative date expressions. Zero means time.Now().
	Now time.Time
	// Location is used for date truncation. Nil means UTC.
	Location *time.Location
	// Dictionaries maps dictionary names or uuids to their words.
	Dictionaries map[string][]string
	// Folders resolves IN_FOLDER terms.
	Folders FolderResolver
}

func (c *Context) now() time.Time {
	if c == nil || c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

func (c *Context) location() *time.Location {
	if c == nil || c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Evaluate reports whether row satisfies n. A nil or disabled root matches
// every row. Evaluation never fails: terms that cannot be evaluated are
// false.
func Evaluate(n Node, row map[string]interface{}, ctx *Context) bool {
	if n == nil || !n.Enabled() {
		return true
	}
	return evaluate(n, row, ctx)
}

func evaluate(n Node, row map[string]interface{}, ctx *Context) bool {
	switch node := n.(type) {
	case *Operator:
		return evaluateOperator(node, row, ctx)
	case *Term:
		return evaluateTerm(node, row, ctx)
	default:
		return false
	}
}

func evaluateOperator(o *Operator, row map[string]interface{}, ctx *Context) bool {
	children := o.EnabledChildren()

	switch o.Op {
	case OpOr:
		for _, child := range children {
			if evaluate(child, row, ctx) {
				return true
			}
		}
		return false

	case OpNot:
		// Several children are treated as the AND of their negations.
		for _, child := range children {
			if evaluate(child, row, ctx) {
				return false
			}
		}
		return true

	default:
		for _, child := range children {
			if !evaluate(child, row, ctx) {
				return false
			}
		}
		return true
	}
}

func evaluateTerm(t *Term, row map[string]interface{}, ctx *Context) bool {
	if ctx == nil {
		return false
	}
	field, ok := ctx.Fields.Get(t.Field)
	if !ok || !field.Supports(t.Condition) {
		return false
	}
	raw, ok := row[t.Field]
	if !ok || raw == nil {
		return false
	}

	switch t.Condition {
	case Equals:
		return equals(field.Type, raw, t.Value, ctx)

	case Contains:
		return strings.Contains(Stringify(raw), t.Value)

	case In:
		for _, v := range splitList(t.Value) {
			if equals(field.Type, raw, v, ctx) {
				return true
			}
		}
		return false

	case InDictionary:
		for _, word := range ctx.Dictionaries[dictionaryName(t)] {
			if equals(field.Type, raw, word, ctx) {
				return true
			}
		}
		return false

	case InFolder:
		if ctx.Folders == nil || t.DocRef == nil {
			return false
		}
		return ctx.Folders.InFolder(t.DocRef.UUID, Stringify(raw))

	case IsDocRef:
		want := strings.TrimSpace(t.Value)
		if t.DocRef != nil {
			want = t.DocRef.UUID
		}
		return want != "" && Stringify(raw) == want

	case Between:
		bounds := strings.Split(t.Value, ",")
		if len(bounds) != 2 {
			return false
		}
		lower, ok := compareTyped(field.Type, raw, bounds[0], ctx)
		if !ok || lower < 0 {
			return false
		}
		upper, ok := compareTyped(field.Type, raw, bounds[1], ctx)
		return ok && upper <= 0

	case GreaterThan:
		cmp, ok := compareTyped(field.Type, raw, t.Value, ctx)
		return ok && cmp > 0
	case GreaterThanOrEqualTo:
		cmp, ok := compareTyped(field.Type, raw, t.Value, ctx)
		return ok && cmp >= 0
	case LessThan:
		cmp, ok := compareTyped(field.Type, raw, t.Value, ctx)
		return ok && cmp < 0
	case LessThanOrEqualTo:
		cmp, ok := compareTyped(field.Type, raw, t.Value, ctx)
		return ok && cmp <= 0

	default:
		return false
	}
}

// equals compares after normalization: term values are trimmed, numbers
// compare numerically and dates chronologically.
func equals(t FieldType, raw interface{}, value string, ctx *Context) bool {
	if t == TypeText || t == TypeDocRef || t == "" {
		return Stringify(raw) == strings.TrimSpace(value)
	}
	cmp, ok := compareTyped(t, raw, value, ctx)
	return ok && cmp == 0
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dictionaryName(t *Term) string {
	if t.DocRef != nil {
		if t.DocRef.UUID != "" {
			return t.DocRef.UUID
		}
		return t.DocRef.Name
	}
	return strings.TrimSpace(t.Value)
}
