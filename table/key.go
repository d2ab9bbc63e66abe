package table

import (
	"net/url"
	"strings"
)

// GroupKey identifies a group: the values of the grouped fields at every
// depth down to its own. Keys are immutable and compare by Code.
type GroupKey struct {
	parent *GroupKey
	values []string
	depth  int
	code   string
}

// NewGroupKey returns the key below parent (nil for a top level group)
// for the grouped values at that depth.
func NewGroupKey(parent *GroupKey, values []string) *GroupKey {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = url.PathEscape(v)
	}
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	return &GroupKey{
		parent: parent,
		values: values,
		depth:  depth,
		code:   parent.Code() + "/" + strings.Join(escaped, "|"),
	}
}

// Code is the canonical encoding of the whole chain, for example
// "/web-1/GET". The root, a nil key, encodes as "".
func (k *GroupKey) Code() string {
	if k == nil {
		return ""
	}
	return k.code
}

func (k *GroupKey) Parent() *GroupKey { return k.parent }
func (k *GroupKey) Depth() int        { return k.depth }

// Values returns the grouped values at the key's own depth.
func (k *GroupKey) Values() []string { return k.values }

// Equal compares full chains.
func (k *GroupKey) Equal(other *GroupKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.code == other.code
}

func (k *GroupKey) String() string { return k.Code() }
