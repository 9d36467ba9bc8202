package search

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

// Operator compares a metadata key against one or more values.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpBetween      Operator = "between"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not in"
)

var validOperators = map[Operator]bool{
	OpEqual:        true,
	OpNotEqual:     true,
	OpGreater:      true,
	OpLess:         true,
	OpGreaterEqual: true,
	OpLessEqual:    true,
	OpBetween:      true,
	OpIn:           true,
	OpNotIn:        true,
}

// ParseOperator validates an operator string.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !validOperators[op] {
		return "", fmt.Errorf("%w: operator %q not allowed, must be one of =, !=, >, <, >=, <=, between, in, not in",
			aurorax.ErrValidation, s)
	}
	return op, nil
}

// FilterExpression is one key/operator/values test inside a MetadataFilter.
type FilterExpression struct {
	Key      string
	Values   []any
	Operator Operator
}

// NewFilterExpression builds an expression. values may be a single value or
// a slice; single values are sent to the API as a one-element string list.
func NewFilterExpression(key string, values any, operator string) (FilterExpression, error) {
	op, err := ParseOperator(operator)
	if err != nil {
		return FilterExpression{}, err
	}
	return FilterExpression{Key: key, Values: listify(values), Operator: op}, nil
}

// Validate checks the expression's operator and key.
func (e FilterExpression) Validate() error {
	if _, err := ParseOperator(string(e.Operator)); err != nil {
		return err
	}
	if strings.TrimSpace(e.Key) == "" {
		return fmt.Errorf("%w: metadata filter expression key cannot be empty", aurorax.ErrValidation)
	}
	return nil
}

func (e FilterExpression) toQuery() map[string]any {
	values := e.Values
	if values == nil {
		values = []any{}
	}
	return map[string]any{
		"key":      e.Key,
		"values":   values,
		"operator": string(e.Operator),
	}
}

func listify(values any) []any {
	if values == nil {
		return []any{}
	}
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{fmt.Sprint(values)}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// MetadataFilter combines expressions with a logical AND or OR.
type MetadataFilter struct {
	Expressions     []FilterExpression
	LogicalOperator string // "and" or "or", any case; empty means AND
}

// NewMetadataFilter builds a filter and validates its operators.
func NewMetadataFilter(logicalOperator string, expressions ...FilterExpression) (*MetadataFilter, error) {
	f := &MetadataFilter{Expressions: expressions, LogicalOperator: logicalOperator}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the logical operator and every expression.
func (f *MetadataFilter) Validate() error {
	if f == nil {
		return nil
	}
	switch strings.ToLower(f.LogicalOperator) {
	case "", "and", "or":
	default:
		return fmt.Errorf("%w: logical operator %q not allowed, must be one of and, or",
			aurorax.ErrValidation, f.LogicalOperator)
	}
	for i, expr := range f.Expressions {
		if err := expr.Validate(); err != nil {
			return fmt.Errorf("expression %d: %w", i, err)
		}
	}
	return nil
}

// ToQuery serializes the filter into the API's filter grammar. A nil filter
// serializes to an empty object.
func (f *MetadataFilter) ToQuery() map[string]any {
	if f == nil {
		return map[string]any{}
	}
	expressions := make([]map[string]any, 0, len(f.Expressions))
	for _, expr := range f.Expressions {
		expressions = append(expressions, expr.toQuery())
	}
	op := strings.ToUpper(f.LogicalOperator)
	if op == "" {
		op = "AND"
	}
	return map[string]any{
		"expressions":      expressions,
		"logical_operator": op,
	}
}
