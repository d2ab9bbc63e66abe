package query

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
)

// Function represents a scalar function usable in field expressions
type Function interface {
	// Name returns the function name (e.g. "UPPER")
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for variadic)
	MaxArity() int
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []interface{}) (interface{}, error)
}

// FunctionRegistry manages function lookup and registration
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates a new function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register registers a function
func (r *FunctionRegistry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(f.Name())] = f
}

// Get retrieves a function by name (case-insensitive)
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToUpper(name)]
	return f, exists
}

// Names returns the registered function names.
func (r *FunctionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// globalRegistry is the default function registry
var globalRegistry *FunctionRegistry

func init() {
	globalRegistry = NewFunctionRegistry()

	// Operators
	globalRegistry.Register(&AddFunc{})
	globalRegistry.Register(&SubtractFunc{})
	globalRegistry.Register(&MultiplyFunc{})
	globalRegistry.Register(&DivideFunc{})
	globalRegistry.Register(&NegateFunc{})

	// Register string functions
	globalRegistry.Register(&UpperFunc{})
	globalRegistry.Register(&LowerFunc{})
	globalRegistry.Register(&ConcatFunc{})
	globalRegistry.Register(&LengthFunc{})
	globalRegistry.Register(&TrimFunc{})
	globalRegistry.Register(&SubstringFunc{})
	globalRegistry.Register(&ReplaceFunc{})

	// Register math functions
	globalRegistry.Register(&AbsFunc{})
	globalRegistry.Register(&RoundFunc{})
	globalRegistry.Register(&FloorFunc{})
	globalRegistry.Register(&CeilFunc{})
	globalRegistry.Register(&ModFunc{})

	// Register date/time functions
	globalRegistry.Register(&ParseDateFunc{})
	globalRegistry.Register(&FormatDateFunc{})
	globalRegistry.Register(&RoundDateFunc{name: "ROUNDDAY", unit: 24 * time.Hour})
	globalRegistry.Register(&RoundDateFunc{name: "ROUNDHOUR", unit: time.Hour})
	globalRegistry.Register(&RoundDateFunc{name: "ROUNDMINUTE", unit: time.Minute})

	// Register conversion and conditional functions
	globalRegistry.Register(&ToStringFunc{})
	globalRegistry.Register(&ToNumberFunc{})
	globalRegistry.Register(&CoalesceFunc{})
	globalRegistry.Register(&NullIfFunc{})
}

// GetGlobalRegistry returns the global function registry
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// Normalize converts a raw input value to one of the value types used by
// field expressions: nil, string, int64, float64, bool or time.Time.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return v
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Stringify renders a value as plain text. Dates use ISO 8601 in UTC.
func Stringify(v interface{}) string {
	s, err := valueToString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// DefaultDateLayout renders dates when no format is configured.
const DefaultDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Helper function to convert value to string
func valueToString(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	case time.Time:
		return val.UTC().Format(DefaultDateLayout), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

// Helper function to convert value to number
func valueToNumber(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case time.Time:
		return float64(val.UnixMilli()), nil
	case string:
		// Try to parse string as number
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to number", v)
	}
}

// valueToTime converts dates, epoch milliseconds and date strings
func valueToTime(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		return dateparse.ParseIn(strings.TrimSpace(val), time.UTC)
	case nil:
		return time.Time{}, fmt.Errorf("cannot convert null to date")
	default:
		ms, err := valueToNumber(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot convert %T to date", v)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}

// isNumeric reports whether v is a number type or a string holding one
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case string:
		_, err := valueToNumber(v)
		return err == nil
	case bool, nil:
		return false
	default:
		_, err := valueToNumber(v)
		return err == nil
	}
}

// ToNumber converts a value to a float64.
func ToNumber(v interface{}) (float64, error) {
	return valueToNumber(v)
}

// ToTime converts dates, epoch milliseconds and date strings to a time.
func ToTime(v interface{}) (time.Time, error) {
	return valueToTime(v)
}
