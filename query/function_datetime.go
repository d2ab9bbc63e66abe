package query

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// Date/Time Functions

// resolveZone turns an optional zone argument into a location
func resolveZone(args []interface{}, i int) (*time.Location, error) {
	if len(args) <= i || args[i] == nil {
		return time.UTC, nil
	}
	name, err := valueToString(args[i])
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(name)
}

// ParseDateFunc parses text into a date. With a pattern the text must match
// it, otherwise any common layout is accepted.
type ParseDateFunc struct{}

func (f *ParseDateFunc) Name() string  { return "PARSEDATE" }
func (f *ParseDateFunc) MinArity() int { return 1 }
func (f *ParseDateFunc) MaxArity() int { return 3 }
func (f *ParseDateFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	if t, ok := args[0].(time.Time); ok {
		return t, nil
	}
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("PARSEDATE: %w", err)
	}
	loc, err := resolveZone(args, 2)
	if err != nil {
		return nil, fmt.Errorf("PARSEDATE: time zone: %w", err)
	}

	if len(args) >= 2 && args[1] != nil {
		pattern, err := valueToString(args[1])
		if err != nil {
			return nil, fmt.Errorf("PARSEDATE: pattern: %w", err)
		}
		layout, err := JavaLayout(pattern)
		if err != nil {
			return nil, fmt.Errorf("PARSEDATE: %w", err)
		}
		t, err := time.ParseInLocation(layout, str, loc)
		if err != nil {
			return nil, fmt.Errorf("PARSEDATE: %w", err)
		}
		return t.UTC(), nil
	}

	t, err := dateparse.ParseIn(str, loc)
	if err != nil {
		return nil, fmt.Errorf("PARSEDATE: %w", err)
	}
	return t.UTC(), nil
}

// FormatDateFunc renders a date with a Java style pattern
type FormatDateFunc struct{}

func (f *FormatDateFunc) Name() string  { return "FORMATDATE" }
func (f *FormatDateFunc) MinArity() int { return 1 }
func (f *FormatDateFunc) MaxArity() int { return 3 }
func (f *FormatDateFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	date, err := valueToTime(args[0])
	if err != nil {
		return nil, fmt.Errorf("FORMATDATE: %w", err)
	}
	loc, err := resolveZone(args, 2)
	if err != nil {
		return nil, fmt.Errorf("FORMATDATE: time zone: %w", err)
	}

	layout := DefaultDateLayout
	if len(args) >= 2 && args[1] != nil {
		pattern, err := valueToString(args[1])
		if err != nil {
			return nil, fmt.Errorf("FORMATDATE: pattern: %w", err)
		}
		if layout, err = JavaLayout(pattern); err != nil {
			return nil, fmt.Errorf("FORMATDATE: %w", err)
		}
	}
	return date.In(loc).Format(layout), nil
}

// RoundDateFunc rounds a date to the nearest unit in UTC
type RoundDateFunc struct {
	name string
	unit time.Duration
}

func (f *RoundDateFunc) Name() string  { return f.name }
func (f *RoundDateFunc) MinArity() int { return 1 }
func (f *RoundDateFunc) MaxArity() int { return 1 }
func (f *RoundDateFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	date, err := valueToTime(args[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return date.UTC().Round(f.unit), nil
}
