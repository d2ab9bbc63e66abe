package query

import (
	"errors"
	"fmt"
	"math"
)

var errDivisionByZero = errors.New("division by zero")

// Arithmetic operators. A null operand makes the result null.

// AddFunc adds numbers, or concatenates when either side is text
type AddFunc struct{}

func (f *AddFunc) Name() string  { return "ADD" }
func (f *AddFunc) MinArity() int { return 2 }
func (f *AddFunc) MaxArity() int { return 2 }
func (f *AddFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	if !isNumeric(args[0]) || !isNumeric(args[1]) {
		return Stringify(args[0]) + Stringify(args[1]), nil
	}
	return arithmetic("ADD", args, func(a, b float64) (float64, error) { return a + b, nil })
}

// SubtractFunc subtracts the second number from the first
type SubtractFunc struct{}

func (f *SubtractFunc) Name() string  { return "SUBTRACT" }
func (f *SubtractFunc) MinArity() int { return 2 }
func (f *SubtractFunc) MaxArity() int { return 2 }
func (f *SubtractFunc) Evaluate(args []interface{}) (interface{}, error) {
	return arithmetic("SUBTRACT", args, func(a, b float64) (float64, error) { return a - b, nil })
}

// MultiplyFunc multiplies two numbers
type MultiplyFunc struct{}

func (f *MultiplyFunc) Name() string  { return "MULTIPLY" }
func (f *MultiplyFunc) MinArity() int { return 2 }
func (f *MultiplyFunc) MaxArity() int { return 2 }
func (f *MultiplyFunc) Evaluate(args []interface{}) (interface{}, error) {
	return arithmetic("MULTIPLY", args, func(a, b float64) (float64, error) { return a * b, nil })
}

// DivideFunc divides the first number by the second
type DivideFunc struct{}

func (f *DivideFunc) Name() string  { return "DIVIDE" }
func (f *DivideFunc) MinArity() int { return 2 }
func (f *DivideFunc) MaxArity() int { return 2 }
func (f *DivideFunc) Evaluate(args []interface{}) (interface{}, error) {
	return arithmetic("DIVIDE", args, func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errDivisionByZero
		}
		return a / b, nil
	})
}

// NegateFunc flips the sign of a number
type NegateFunc struct{}

func (f *NegateFunc) Name() string  { return "NEGATE" }
func (f *NegateFunc) MinArity() int { return 1 }
func (f *NegateFunc) MaxArity() int { return 1 }
func (f *NegateFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return nil, nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("NEGATE: %w", err)
	}
	return -num, nil
}

func arithmetic(name string, args []interface{}, op func(a, b float64) (float64, error)) (interface{}, error) {
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	left, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("%s: left: %w", name, err)
	}
	right, err := valueToNumber(args[1])
	if err != nil {
		return nil, fmt.Errorf("%s: right: %w", name, err)
	}
	result, err := op(left, right)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

// Math Functions

// AbsFunc returns the absolute value of a number
type AbsFunc struct{}

func (f *AbsFunc) Name() string  { return "ABS" }
func (f *AbsFunc) MinArity() int { return 1 }
func (f *AbsFunc) MaxArity() int { return 1 }
func (f *AbsFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ABS: %w", err)
	}
	return math.Abs(num), nil
}

// RoundFunc rounds a number to the specified number of decimal places
type RoundFunc struct{}

func (f *RoundFunc) Name() string  { return "ROUND" }
func (f *RoundFunc) MinArity() int { return 1 }
func (f *RoundFunc) MaxArity() int { return 2 }
func (f *RoundFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ROUND: %w", err)
	}

	// Default to 0 decimal places
	decimals := 0.0
	if len(args) == 2 {
		decimals, err = valueToNumber(args[1])
		if err != nil {
			return nil, fmt.Errorf("ROUND: decimals argument: %w", err)
		}
	}

	multiplier := math.Pow(10, decimals)
	return math.Round(num*multiplier) / multiplier, nil
}

// FloorFunc returns the largest integer less than or equal to a number
type FloorFunc struct{}

func (f *FloorFunc) Name() string  { return "FLOOR" }
func (f *FloorFunc) MinArity() int { return 1 }
func (f *FloorFunc) MaxArity() int { return 1 }
func (f *FloorFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("FLOOR: %w", err)
	}
	return math.Floor(num), nil
}

// CeilFunc returns the smallest integer greater than or equal to a number
type CeilFunc struct{}

func (f *CeilFunc) Name() string  { return "CEIL" }
func (f *CeilFunc) MinArity() int { return 1 }
func (f *CeilFunc) MaxArity() int { return 1 }
func (f *CeilFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("CEIL: %w", err)
	}
	return math.Ceil(num), nil
}

// ModFunc returns the remainder of division
type ModFunc struct{}

func (f *ModFunc) Name() string  { return "MOD" }
func (f *ModFunc) MinArity() int { return 2 }
func (f *ModFunc) MaxArity() int { return 2 }
func (f *ModFunc) Evaluate(args []interface{}) (interface{}, error) {
	return arithmetic("MOD", args, func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errDivisionByZero
		}
		return math.Mod(a, b), nil
	})
}
