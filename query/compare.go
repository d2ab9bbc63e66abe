package query

import (
	"cmp"
	"strings"
	"time"
)

// isEmpty reports whether v is null or empty text
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// CompareValues orders two field values. Nulls and empty text sort before
// everything else, numbers compare numerically, dates chronologically and
// anything else as text.
func CompareValues(a, b interface{}) int {
	// Handle empty values
	aEmpty, bEmpty := isEmpty(a), isEmpty(b)
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return -1
	case bEmpty:
		return 1
	}

	// Dates
	aTime, aIsTime := a.(time.Time)
	bTime, bIsTime := b.(time.Time)
	if aIsTime && bIsTime {
		return aTime.Compare(bTime)
	}

	// Booleans, false before true
	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		switch {
		case aBool == bBool:
			return 0
		case !aBool:
			return -1
		default:
			return 1
		}
	}

	// Integers exactly, beyond float64 precision
	if aInt, ok := a.(int64); ok {
		if bInt, ok := b.(int64); ok {
			return cmp.Compare(aInt, bInt)
		}
	}

	// Try numeric comparison
	if isNumeric(a) && isNumeric(b) {
		aNum, _ := valueToNumber(a)
		bNum, _ := valueToNumber(b)
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(Stringify(a), Stringify(b))
}
