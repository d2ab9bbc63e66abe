package expression

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperator_UnmarshalJSON(t *testing.T) {
	input := `{
		"type": "operator",
		"op": "OR",
		"children": [
			{"type": "term", "field": "name", "condition": "EQUALS", "value": "alice"},
			{"type": "operator", "op": "NOT", "enabled": false, "children": [
				{"type": "term", "field": "age", "condition": "LESS_THAN", "value": "10"}
			]},
			{"type": "term", "field": "feed", "condition": "IS_DOC_REF", "docRef": {"type": "Feed", "uuid": "u1", "name": "FEED"}}
		]
	}`

	var op Operator
	require.NoError(t, json.Unmarshal([]byte(input), &op))

	assert.Equal(t, OpOr, op.Op)
	assert.True(t, op.Enabled())
	require.Len(t, op.Children, 3)

	term, ok := op.Children[0].(*Term)
	require.True(t, ok)
	assert.Equal(t, &Term{Field: "name", Condition: Equals, Value: "alice"}, term)

	not, ok := op.Children[1].(*Operator)
	require.True(t, ok)
	assert.False(t, not.Enabled())
	assert.Equal(t, OpNot, not.Op)

	ref, ok := op.Children[2].(*Term)
	require.True(t, ok)
	assert.Equal(t, &DocRef{Type: "Feed", UUID: "u1", Name: "FEED"}, ref.DocRef)
	assert.Len(t, op.EnabledChildren(), 2)
}

func TestOperator_JSONRoundTrip(t *testing.T) {
	expr := And(
		NewTerm("name", Contains, "al"),
		&Operator{Op: OpOr, Disabled: true},
		Not(NewTerm("age", Between, "1,2")),
	)

	data, err := json.Marshal(expr)
	require.NoError(t, err)

	var decoded Operator
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, expr, &decoded)
}

func TestOperator_UnmarshalDefaults(t *testing.T) {
	var op Operator
	require.NoError(t, json.Unmarshal([]byte(`{"children": []}`), &op))
	assert.Equal(t, OpAnd, op.Op)
	assert.True(t, op.Enabled())
}

func TestUnmarshalNode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type", `{"type": "banana"}`},
		{"unknown operator", `{"type": "operator", "op": "XOR"}`},
		{"unknown condition", `{"type": "term", "field": "a", "condition": "LIKE"}`},
		{"bad child", `{"type": "operator", "children": [{"type": "nope"}]}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalNode([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestString(t *testing.T) {
	expr := And(
		NewTerm("name", Equals, "alice"),
		&Term{Field: "x", Condition: Equals, Value: "y", Disabled: true},
		Not(NewTerm("host", Contains, "test")),
		NewDocRefTerm("feed", IsDocRef, DocRef{UUID: "u1", Name: "FEED"}),
		And(),
	)
	assert.Equal(t, "AND {name = alice, NOT {host contains test}, feed is FEED, AND {}}", expr.String())
}

func TestFieldsAndHighlights(t *testing.T) {
	expr := And(
		NewTerm("name", Equals, "alice"),
		NewTerm("host", In, "a, b"),
		NewTerm("age", GreaterThan, "3"),
		Not(NewTerm("name", Contains, "secret")),
		&Term{Field: "skipped", Condition: Equals, Value: "z", Disabled: true},
	)
	assert.Equal(t, []string{"name", "host", "age"}, Fields(expr))
	assert.Equal(t, []string{"alice", "a", "b"}, Highlights(expr))
	assert.Nil(t, Highlights(&Operator{Op: OpAnd, Disabled: true}))
}

func TestReplaceParams(t *testing.T) {
	expr := And(
		NewTerm("user", Equals, "${user}"),
		NewTerm("range", Between, "${from},${to}"),
		NewTerm("other", Equals, "${unknown} stays"),
	)
	replaced := ReplaceOperatorParams(expr, map[string]string{"user": "bob", "from": "1", "to": "9"})

	assert.Equal(t, "AND {user = bob, range between 1,9, other = ${unknown} stays}", replaced.String())
	// The original is untouched.
	assert.Equal(t, "${user}", expr.Children[0].(*Term).Value)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(And(
		NewTerm("name", Equals, "a"),
		NewTerm("created", GreaterThan, "now() -1d"),
		NewTerm("age", Between, "1,2"),
	), testFields))

	err := Validate(And(
		NewTerm("missing", Equals, "a"),
		NewTerm("name", GreaterThan, "a"),
		NewTerm("age", Between, "1"),
		NewTerm("created", GreaterThan, "now() 1d"),
		&Term{Field: "ignored", Condition: Equals, Disabled: true},
	), testFields)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.True(t, errors.Is(err, ErrUnsupportedCondition))
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.Contains(t, err.Error(), "You must specify a plus or minus operation before duration '1d'.")
}

func TestFieldDescriptor_Supports(t *testing.T) {
	assert.True(t, Field("a", TypeText).Supports(Contains))
	assert.False(t, Field("a", TypeNumeric).Supports(Contains))
	custom := FieldDescriptor{Name: "b", Type: TypeText, Conditions: []Condition{Equals}}
	assert.False(t, custom.Supports(Contains))
	assert.True(t, FieldDescriptor{Name: "c", Type: TypeDate}.Supports(Between))
}
