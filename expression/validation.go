package expression

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vegasq/parsearch/datemath"
)

// MaxExpressionDepth is the maximum nesting depth for expressions.
const MaxExpressionDepth = 100

var (
	// ErrExpressionTooDeep is returned when expression nesting exceeds limit
	ErrExpressionTooDeep = errors.New("expression nesting too deep")

	// ErrUnknownField is returned for terms on fields the data source lacks
	ErrUnknownField = errors.New("unknown field")

	// ErrUnsupportedCondition is returned when a field type does not accept a condition
	ErrUnsupportedCondition = errors.New("unsupported condition")

	// ErrInvalidValue is returned when a term value cannot be used with its condition
	ErrInvalidValue = errors.New("invalid value")
)

// Validate checks the enabled parts of an expression against a registry.
// Evaluation itself tolerates every problem reported here; validation
// exists so callers can reject a query before any rows are read.
func Validate(n Node, fields *Registry) error {
	var errs []error
	validate(n, fields, 0, &errs)
	return errors.Join(errs...)
}

func validate(n Node, fields *Registry, depth int, errs *[]error) {
	if n == nil || !n.Enabled() {
		return
	}
	if depth > MaxExpressionDepth {
		*errs = append(*errs, fmt.Errorf("%w: %d (max %d)", ErrExpressionTooDeep, depth, MaxExpressionDepth))
		return
	}

	switch node := n.(type) {
	case *Operator:
		for _, child := range node.EnabledChildren() {
			validate(child, fields, depth+1, errs)
		}
	case *Term:
		if err := validateTerm(node, fields); err != nil {
			*errs = append(*errs, err)
		}
	}
}

func validateTerm(t *Term, fields *Registry) error {
	field, ok := fields.Get(t.Field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, t.Field)
	}
	if !field.Supports(t.Condition) {
		return fmt.Errorf("%w: %s does not support %s", ErrUnsupportedCondition, t.Field, t.Condition)
	}

	switch t.Condition {
	case Between:
		bounds := strings.Split(t.Value, ",")
		if len(bounds) != 2 {
			return fmt.Errorf("%w: %s between %q needs exactly two comma separated bounds", ErrInvalidValue, t.Field, t.Value)
		}
		if field.Type == TypeDate {
			for _, b := range bounds {
				if err := validateDate(b); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrInvalidValue, t.Field, err)
				}
			}
		}
	case GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo, Equals:
		if field.Type == TypeDate {
			if err := validateDate(t.Value); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidValue, t.Field, err)
			}
		}
	case InFolder:
		if t.DocRef == nil {
			return fmt.Errorf("%w: %s in folder needs a folder reference", ErrInvalidValue, t.Field)
		}
	}
	return nil
}

func validateDate(value string) error {
	ctx := &Context{Now: time.Now()}
	if _, ok := resolveDate(value, ctx); ok {
		return nil
	}
	// Report the date math diagnostic, it is the more helpful of the two.
	_, err := datemath.Parse(strings.TrimSpace(value), time.Now())
	return err
}
