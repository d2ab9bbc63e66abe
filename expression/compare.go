package expression

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/vegasq/parsearch/datemath"
)

// number is a numeric row or term value. Integers stay integers so that
// ids compare exactly beyond float64 precision.
type number struct {
	i       int64
	f       float64
	integer bool
}

// toNumber converts a value to a number if possible
func toNumber(v interface{}) (number, bool) {
	switch val := v.(type) {
	case int:
		return number{i: int64(val), integer: true}, true
	case int8:
		return number{i: int64(val), integer: true}, true
	case int16:
		return number{i: int64(val), integer: true}, true
	case int32:
		return number{i: int64(val), integer: true}, true
	case int64:
		return number{i: val, integer: true}, true
	case uint:
		return unsigned(uint64(val)), true
	case uint8:
		return number{i: int64(val), integer: true}, true
	case uint16:
		return number{i: int64(val), integer: true}, true
	case uint32:
		return number{i: int64(val), integer: true}, true
	case uint64:
		return unsigned(val), true
	case float32:
		return number{f: float64(val)}, !math.IsNaN(float64(val))
	case float64:
		return number{f: val}, !math.IsNaN(val)
	case string:
		return parseNumber(val)
	default:
		return number{}, false
	}
}

func unsigned(u uint64) number {
	if u > math.MaxInt64 {
		return number{f: float64(u)}
	}
	return number{i: int64(u), integer: true}
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{i: i, integer: true}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return number{}, false
	}
	return number{f: f}, true
}

// compareNumbers orders two numbers. Integers compare exactly, also
// against floats; two floats treat near-equal values as equal.
func compareNumbers(left, right number) int {
	switch {
	case left.integer && right.integer:
		return cmp.Compare(left.i, right.i)
	case left.integer:
		return compareIntFloat(left.i, right.f)
	case right.integer:
		return -compareIntFloat(right.i, left.f)
	}

	const epsilon = 1e-9
	diff := math.Abs(left.f - right.f)
	threshold := epsilon * math.Max(1.0, math.Max(math.Abs(left.f), math.Abs(right.f)))
	if diff < threshold {
		return 0
	}
	return cmp.Compare(left.f, right.f)
}

func compareIntFloat(i int64, f float64) int {
	switch {
	case f >= math.MaxInt64:
		return -1
	case f < math.MinInt64:
		return 1
	}
	floor := math.Floor(f)
	if c := cmp.Compare(i, int64(floor)); c != 0 {
		return c
	}
	if f > floor {
		return -1
	}
	return 0
}

// Stringify renders a row value the way terms see it.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case DocRef:
		return val.UUID
	case *DocRef:
		if val == nil {
			return ""
		}
		return val.UUID
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// toTime converts a row value to an instant. Integers are epoch
// milliseconds and strings may be in any common layout.
func toTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case string:
		t, err := dateparse.ParseIn(strings.TrimSpace(val), time.UTC)
		return t, err == nil
	default:
		n, ok := toNumber(v)
		if !ok {
			return time.Time{}, false
		}
		if !n.integer {
			n.i = int64(n.f)
		}
		return time.UnixMilli(n.i).UTC(), true
	}
}

// resolveDate turns a term value into an instant, trying date math first.
func resolveDate(value string, ctx *Context) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := datemath.ParseInZone(value, ctx.location(), ctx.now()); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(value, ctx.location())
	return t, err == nil
}

// compareTyped orders a row value against a term value using the natural
// order of the field type. ok is false when either side does not parse.
func compareTyped(t FieldType, raw interface{}, value string, ctx *Context) (int, bool) {
	switch t {
	case TypeNumeric, TypeID:
		left, ok := toNumber(raw)
		if !ok {
			return 0, false
		}
		right, ok := parseNumber(value)
		if !ok {
			return 0, false
		}
		return compareNumbers(left, right), true

	case TypeDate:
		left, ok := toTime(raw)
		if !ok {
			return 0, false
		}
		right, ok := resolveDate(value, ctx)
		if !ok {
			return 0, false
		}
		return left.Compare(right), true

	case TypeBoolean:
		left, err := strconv.ParseBool(strings.TrimSpace(Stringify(raw)))
		if err != nil {
			return 0, false
		}
		right, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		switch {
		case left == right:
			return 0, true
		case !left:
			return -1, true
		default:
			return 1, true
		}

	default:
		return strings.Compare(Stringify(raw), strings.TrimSpace(value)), true
	}
}
