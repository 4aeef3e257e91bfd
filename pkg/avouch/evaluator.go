package avouch

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chosenoffset/avouch/pkg/avouch/parser"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

type ObjectType string

const (
	NUMBER_OBJ  ObjectType = "NUMBER"
	BOOLEAN_OBJ ObjectType = "BOOLEAN"
	NULL_OBJ    ObjectType = "NULL"
)

type Number struct {
	Value float64
}

func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'f', -1, 64) }
func (n *Number) Type() ObjectType { return NUMBER_OBJ }

func (n *Number) MarshalJSON() ([]byte, error) { return json.Marshal(n.Value) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

func (b *Boolean) MarshalJSON() ([]byte, error) { return json.Marshal(b.Value) }

type Null struct{}

func (n *Null) Inspect() string  { return "null" }
func (n *Null) Type() ObjectType { return NULL_OBJ }

func (n *Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// Context is the flat mapping of names to numbers and booleans that
// compiled conditions are evaluated against.
type Context map[string]Object

// UnmarshalJSON rebuilds a context from its JSON form, so assessments
// survive a round trip through the HTTP API and the history store.
// Context values are only ever numbers, booleans and nulls.
func (c *Context) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	ctx := Context{}
	for name, value := range values {
		switch v := value.(type) {
		case float64:
			ctx[name] = &Number{Value: v}
		case bool:
			ctx[name] = nativeBoolToBooleanObject(v)
		case nil:
			ctx[name] = NULL
		default:
			return fmt.Errorf("context value %s has unsupported type %T", name, value)
		}
	}

	*c = ctx
	return nil
}

// Eval walks a parsed condition against a context. Evaluation is total:
// identifiers missing from the context resolve to false as a boolean
// factor and to 0 as a comparison operand, so a rule referencing an
// unconfigured field degrades instead of failing the whole assessment.
func Eval(node parser.Expression, ctx Context) Object {
	switch node := node.(type) {
	case *parser.BooleanLiteral:
		return nativeBoolToBooleanObject(node.Value)

	case *parser.NumberLiteral:
		return &Number{Value: node.Value}

	case *parser.Identifier:
		if obj, ok := ctx[node.Value]; ok && obj != nil {
			return obj
		}
		return FALSE

	case *parser.NotExpression:
		return nativeBoolToBooleanObject(!isTruthy(Eval(node.Operand, ctx)))

	case *parser.LogicalExpression:
		left := isTruthy(Eval(node.Left, ctx))
		if node.Operator == "AND" {
			if !left {
				return FALSE
			}
			return nativeBoolToBooleanObject(isTruthy(Eval(node.Right, ctx)))
		}
		if left {
			return TRUE
		}
		return nativeBoolToBooleanObject(isTruthy(Eval(node.Right, ctx)))

	case *parser.ComparisonExpression:
		return evalComparison(node, ctx)

	default:
		// The parser produces no other node types.
		return FALSE
	}
}

func evalComparison(node *parser.ComparisonExpression, ctx Context) Object {
	left := operandValue(ctx, node.Left.Value)

	var right float64
	switch r := node.Right.(type) {
	case *parser.NumberLiteral:
		right = r.Value
	case *parser.Identifier:
		right = operandValue(ctx, r.Value)
	}

	switch node.Operator {
	case ">=":
		return nativeBoolToBooleanObject(left >= right)
	case "<=":
		return nativeBoolToBooleanObject(left <= right)
	case "==":
		return nativeBoolToBooleanObject(left == right)
	case "!=":
		return nativeBoolToBooleanObject(left != right)
	case ">":
		return nativeBoolToBooleanObject(left > right)
	case "<":
		return nativeBoolToBooleanObject(left < right)
	}
	return FALSE
}

// operandValue resolves an identifier used inside a comparison. Missing
// names resolve to 0; booleans coerce to 1 and 0 so flags can be compared
// numerically.
func operandValue(ctx Context, name string) float64 {
	obj, ok := ctx[name]
	if !ok {
		return 0
	}
	return objectToFloat(obj)
}

func objectToFloat(obj Object) float64 {
	switch obj := obj.(type) {
	case *Number:
		return obj.Value
	case *Boolean:
		if obj.Value {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func isTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case *Boolean:
		return obj.Value
	case *Number:
		return obj.Value != 0
	default:
		return false
	}
}

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}
