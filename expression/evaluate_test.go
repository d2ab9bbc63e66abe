package expression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testFields = NewRegistry(
	Field("name", TypeText),
	Field("age", TypeNumeric),
	Field("id", TypeID),
	Field("active", TypeBoolean),
	Field("created", TypeDate),
	Field("feed", TypeDocRef),
)

type folders map[string][]string

func (f folders) InFolder(folder, doc string) bool {
	for _, d := range f[folder] {
		if d == doc {
			return true
		}
	}
	return false
}

func testContext() *Context {
	return &Context{
		Fields: testFields,
		Now:    time.Date(2015, 2, 3, 1, 22, 33, 0, time.UTC),
		Dictionaries: map[string][]string{
			"staff": {"alice", "bob"},
		},
		Folders: folders{"f1": {"feed-1"}},
	}
}

func testRow() map[string]interface{} {
	return map[string]interface{}{
		"name":    "alice",
		"age":     int64(30),
		"id":      "42",
		"active":  true,
		"created": time.Date(2015, 2, 2, 12, 0, 0, 0, time.UTC),
		"feed":    "feed-1",
	}
}

func TestEvaluate_Terms(t *testing.T) {
	tests := []struct {
		name string
		term *Term
		want bool
	}{
		{"equals text", NewTerm("name", Equals, "alice"), true},
		{"equals text trimmed", NewTerm("name", Equals, " alice "), true},
		{"equals text case sensitive", NewTerm("name", Equals, "Alice"), false},
		{"equals number", NewTerm("age", Equals, "30.0"), true},
		{"equals boolean", NewTerm("active", Equals, "true"), true},
		{"contains", NewTerm("name", Contains, "lic"), true},
		{"contains case sensitive", NewTerm("name", Contains, "LIC"), false},
		{"in", NewTerm("name", In, "bob, alice"), true},
		{"not in", NewTerm("name", In, "bob,carol"), false},
		{"in numbers", NewTerm("age", In, "10,30"), true},
		{"in dictionary", NewTerm("name", InDictionary, "staff"), true},
		{"missing dictionary", NewTerm("name", InDictionary, "nobody"), false},
		{"between inclusive low", NewTerm("age", Between, "30,40"), true},
		{"between inclusive high", NewTerm("age", Between, "20,30"), true},
		{"between outside", NewTerm("age", Between, "31,40"), false},
		{"between malformed", NewTerm("age", Between, "20,30,40"), false},
		{"greater than", NewTerm("age", GreaterThan, "29"), true},
		{"greater than equal", NewTerm("age", GreaterThan, "30"), false},
		{"greater or equal", NewTerm("age", GreaterThanOrEqualTo, "30"), true},
		{"less than", NewTerm("age", LessThan, "31"), true},
		{"less or equal", NewTerm("age", LessThanOrEqualTo, "29"), false},
		{"numeric order not lexicographic", NewTerm("age", GreaterThan, "100"), false},
		{"id order", NewTerm("id", GreaterThan, "9"), true},
		{"date relative", NewTerm("created", GreaterThan, "day() -1d"), true},
		{"date relative after", NewTerm("created", GreaterThan, "day()"), false},
		{"date absolute", NewTerm("created", LessThan, "2015-02-03T00:00:00Z"), true},
		{"date between", NewTerm("created", Between, "day() -1d, day()"), true},
		{"date malformed", NewTerm("created", GreaterThan, "yesterday-ish"), false},
		{"number malformed", NewTerm("age", GreaterThan, "abc"), false},
		{"is doc ref value", NewTerm("feed", IsDocRef, "feed-1"), true},
		{"is doc ref", NewDocRefTerm("feed", IsDocRef, DocRef{UUID: "feed-2"}), false},
		{"in folder", NewDocRefTerm("feed", InFolder, DocRef{UUID: "f1"}), true},
		{"in other folder", NewDocRefTerm("feed", InFolder, DocRef{UUID: "f2"}), false},
		{"unknown field", NewTerm("missing", Equals, "x"), false},
		{"unsupported condition", NewTerm("name", GreaterThan, "a"), false},
		{"text ordering unsupported", NewTerm("active", Contains, "t"), false},
	}

	ctx := testContext()
	row := testRow()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.term, row, ctx), "term %s", tt.term)
		})
	}
}

func TestEvaluate_LargeIDs(t *testing.T) {
	const above53 = int64(1)<<53 + 1
	tests := []struct {
		name string
		raw  interface{}
		term *Term
		want bool
	}{
		{"equals exact", int64(1700000000000), NewTerm("id", Equals, "1700000000000"), true},
		{"equals near", int64(1700000000000), NewTerm("id", Equals, "1700000000500"), false},
		{"less than near", int64(1700000000000), NewTerm("id", LessThan, "1700000000500"), true},
		{"greater than near", int64(1700000000001), NewTerm("id", GreaterThan, "1700000000000"), true},
		{"in near", int64(1700000000000), NewTerm("id", In, "1700000000001,1699999999999"), false},
		{"between near", int64(1700000000000), NewTerm("id", Between, "1700000000001,1700000000500"), false},
		{"above 2^53 equals", above53, NewTerm("id", Equals, "9007199254740993"), true},
		{"above 2^53 not equal neighbour", above53, NewTerm("id", Equals, "9007199254740992"), false},
		{"above 2^53 greater", above53, NewTerm("id", GreaterThan, "9007199254740992"), true},
		{"string id above 2^53", "9007199254740993", NewTerm("id", LessThan, "9007199254740994"), true},
		{"unsigned max", uint64(1<<64 - 1), NewTerm("id", GreaterThan, "9223372036854775807"), true},
		{"integer against fraction", int64(10), NewTerm("age", LessThan, "10.5"), true},
		{"integer against fraction below", int64(10), NewTerm("age", GreaterThan, "9.5"), true},
		{"float near equal", 0.1 + 0.2, NewTerm("age", Equals, "0.3"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := map[string]interface{}{tt.term.Field: tt.raw}
			assert.Equal(t, tt.want, Evaluate(tt.term, row, testContext()))
		})
	}
}

func TestEvaluate_Operators(t *testing.T) {
	yes := NewTerm("name", Equals, "alice")
	no := NewTerm("name", Equals, "bob")

	tests := []struct {
		name string
		expr Node
		want bool
	}{
		{"empty and", And(), true},
		{"empty or", Or(), false},
		{"and", And(yes, yes), true},
		{"and false", And(yes, no), false},
		{"or", Or(no, yes), true},
		{"or false", Or(no, no), false},
		{"not single", Not(no), true},
		{"not single true", Not(yes), false},
		{"not several is and of negations", Not(no, no), true},
		{"not several one true", Not(no, yes), false},
		{"disabled child skipped", And(yes, &Term{Field: "name", Condition: Equals, Value: "bob", Disabled: true}), true},
		{"disabled operator child skipped", Or(no, &Operator{Op: OpAnd, Disabled: true}), false},
		{"nested", And(Or(no, yes), Not(no)), true},
	}

	ctx := testContext()
	row := testRow()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expr, row, ctx))
		})
	}
}

func TestEvaluate_DisabledRootIsInert(t *testing.T) {
	root := &Operator{Op: OpAnd, Disabled: true}
	assert.True(t, Evaluate(root, testRow(), testContext()))
	assert.Equal(t, "", root.String())
	assert.Empty(t, root.EnabledChildren())
	assert.True(t, Evaluate(nil, testRow(), testContext()))
}

func TestEvaluate_NotMatchesNegation(t *testing.T) {
	ctx := testContext()
	row := testRow()
	for _, term := range []*Term{
		NewTerm("name", Equals, "alice"),
		NewTerm("name", Equals, "bob"),
		NewTerm("age", GreaterThan, "10"),
		NewTerm("missing", Equals, "x"),
	} {
		disabled := &Term{Field: "age", Condition: Equals, Value: "0", Disabled: true}
		assert.Equal(t, !Evaluate(term, row, ctx), Evaluate(Not(term, disabled), row, ctx), "NOT %s", term)
	}
}

func TestEvaluate_MissingValue(t *testing.T) {
	ctx := testContext()
	row := map[string]interface{}{"name": nil}
	assert.False(t, Evaluate(NewTerm("name", Equals, ""), row, ctx))
	assert.False(t, Evaluate(NewTerm("age", LessThan, "10"), row, ctx))
	assert.False(t, Evaluate(NewTerm("name", Equals, "x"), row, nil))
}

func TestEvaluate_DateValuesInRows(t *testing.T) {
	ctx := testContext()
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"string", "2015-02-02 12:00:00", true},
		{"epoch millis", time.Date(2015, 2, 2, 12, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"old", "2010-01-01", false},
		{"garbage", "not a date", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := map[string]interface{}{"created": tt.value}
			assert.Equal(t, tt.want, Evaluate(NewTerm("created", GreaterThan, "2015-02-01T00:00:00Z"), row, ctx))
		})
	}
}
